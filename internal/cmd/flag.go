package cmd

import "github.com/fulfillkit/inboundplan/internal/constant"

var flgs = &Flags{}

type Flags struct {
	Listen            string
	TableName         string
	SettingsTableName string
	EndpointURL       string

	GatewayEndpoint string
	GatewayRegion   string
	TokenEndpoint   string
	RoleARN         string

	SellerID       string
	MarketplaceID  string
	PlanNamePrefix string

	ShipFromName    string
	ShipFromLine1   string
	ShipFromLine2   string
	ShipFromCity    string
	ShipFromState   string
	ShipFromPostal  string
	ShipFromCountry string
	ShipFromPhone   string
	ShipFromEmail   string
}

var flagMap = FlagMap{
	Listen: FlagSet[string]{
		Name:  "listen",
		Usage: "Address the HTTP server listens on.",
		Value: ":8080",
	},
	TableName: FlagSet[string]{
		Name:  "table-name",
		Usage: "The name of the table holding shipment requests.",
		Value: constant.DefaultTableName,
	},
	SettingsTableName: FlagSet[string]{
		Name:  "settings-table-name",
		Usage: "The name of the key-value settings table.",
		Value: constant.DefaultSettingsTableName,
	},
	EndpointURL: FlagSet[string]{
		Name:  "endpoint-url",
		Usage: "Override the DynamoDB endpoint with the given URL.",
		Value: "",
	},
	GatewayEndpoint: FlagSet[string]{
		Name:  "gateway-endpoint",
		Usage: "Base URL of the planning gateway.",
		Value: "https://sellingpartnerapi-na.amazon.com",
	},
	GatewayRegion: FlagSet[string]{
		Name:  "gateway-region",
		Usage: "Signing region of the planning gateway.",
		Value: "us-east-1",
	},
	TokenEndpoint: FlagSet[string]{
		Name:  "token-endpoint",
		Usage: "OAuth token endpoint for the refresh token exchange.",
		Value: "https://api.amazon.com/auth/o2/token",
	},
	RoleARN: FlagSet[string]{
		Name:  "role-arn",
		Usage: "IAM role assumed for request signing.",
		Value: "",
	},
	SellerID: FlagSet[string]{
		Name:  "seller-id",
		Usage: "Seller account identifier.",
		Value: "",
	},
	MarketplaceID: FlagSet[string]{
		Name:  "marketplace-id",
		Usage: "Destination marketplace identifier.",
		Value: "",
	},
	PlanNamePrefix: FlagSet[string]{
		Name:  "plan-name-prefix",
		Usage: "Prefix for generated inbound plan names.",
		Value: "Inbound",
	},
}

type FlagSet[T any] struct {
	Name  string
	Usage string
	Value T
}

type FlagMap struct {
	Listen            FlagSet[string]
	TableName         FlagSet[string]
	SettingsTableName FlagSet[string]
	EndpointURL       FlagSet[string]
	GatewayEndpoint   FlagSet[string]
	GatewayRegion     FlagSet[string]
	TokenEndpoint     FlagSet[string]
	RoleARN           FlagSet[string]
	SellerID          FlagSet[string]
	MarketplaceID     FlagSet[string]
	PlanNamePrefix    FlagSet[string]
}
