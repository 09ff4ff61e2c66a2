package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan"
	"github.com/fulfillkit/inboundplan/server"
	"github.com/fulfillkit/inboundplan/spapi"
)

type CommandFactory struct {
	CreateOrchestrator func(ctx context.Context, flgs *Flags, logger *zap.Logger) (*inboundplan.Orchestrator, error)
}

var defaultCommandFactory = CommandFactory{
	CreateOrchestrator: createOrchestrator,
}

var root = defaultCommandFactory.CreateRootCommand(flgs)

func setDefaultFlags(c *cobra.Command, flgs *Flags) {
	c.Flags().StringVar(&flgs.Listen, flagMap.Listen.Name, flagMap.Listen.Value, flagMap.Listen.Usage)
	c.Flags().StringVar(&flgs.TableName, flagMap.TableName.Name, flagMap.TableName.Value, flagMap.TableName.Usage)
	c.Flags().StringVar(&flgs.SettingsTableName, flagMap.SettingsTableName.Name, flagMap.SettingsTableName.Value, flagMap.SettingsTableName.Usage)
	c.Flags().StringVar(&flgs.EndpointURL, flagMap.EndpointURL.Name, flagMap.EndpointURL.Value, flagMap.EndpointURL.Usage)
	c.Flags().StringVar(&flgs.GatewayEndpoint, flagMap.GatewayEndpoint.Name, flagMap.GatewayEndpoint.Value, flagMap.GatewayEndpoint.Usage)
	c.Flags().StringVar(&flgs.GatewayRegion, flagMap.GatewayRegion.Name, flagMap.GatewayRegion.Value, flagMap.GatewayRegion.Usage)
	c.Flags().StringVar(&flgs.TokenEndpoint, flagMap.TokenEndpoint.Name, flagMap.TokenEndpoint.Value, flagMap.TokenEndpoint.Usage)
	c.Flags().StringVar(&flgs.RoleARN, flagMap.RoleARN.Name, flagMap.RoleARN.Value, flagMap.RoleARN.Usage)
	c.Flags().StringVar(&flgs.SellerID, flagMap.SellerID.Name, flagMap.SellerID.Value, flagMap.SellerID.Usage)
	c.Flags().StringVar(&flgs.MarketplaceID, flagMap.MarketplaceID.Name, flagMap.MarketplaceID.Value, flagMap.MarketplaceID.Usage)
	c.Flags().StringVar(&flgs.PlanNamePrefix, flagMap.PlanNamePrefix.Name, flagMap.PlanNamePrefix.Value, flagMap.PlanNamePrefix.Usage)

	c.Flags().StringVar(&flgs.ShipFromName, "ship-from-name", "", "Ship-from contact or warehouse name.")
	c.Flags().StringVar(&flgs.ShipFromLine1, "ship-from-line1", "", "Ship-from street address.")
	c.Flags().StringVar(&flgs.ShipFromLine2, "ship-from-line2", "", "Ship-from street address, second line.")
	c.Flags().StringVar(&flgs.ShipFromCity, "ship-from-city", "", "Ship-from city.")
	c.Flags().StringVar(&flgs.ShipFromState, "ship-from-state", "", "Ship-from state or province code.")
	c.Flags().StringVar(&flgs.ShipFromPostal, "ship-from-postal-code", "", "Ship-from postal code.")
	c.Flags().StringVar(&flgs.ShipFromCountry, "ship-from-country", "", "Ship-from country code.")
	c.Flags().StringVar(&flgs.ShipFromPhone, "ship-from-phone", "", "Ship-from phone number.")
	c.Flags().StringVar(&flgs.ShipFromEmail, "ship-from-email", "", "Ship-from contact email.")
}

func (f CommandFactory) CreateRootCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "inboundplan-server",
		Short: "inboundplan-server turns staged shipment requests into confirmed inbound plans",
		Long: `inboundplan-server exposes an HTTP trigger that drives a staged shipment
request through eligibility prechecks, prep and expiration resolution, remote
plan creation with error-driven repair, and packing option confirmation.`,
		RunE: func(c *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, err := f.CreateOrchestrator(ctx, flgs, logger)
			if err != nil {
				return err
			}

			srv := server.New(orchestrator, server.WithServerLogger(logger))
			httpServer := &http.Server{
				Addr:    flgs.Listen,
				Handler: srv.Handler(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", flgs.Listen))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// createOrchestrator wires the production dependency graph: AWS config,
// DynamoDB store, credential broker, signed gateway client, orchestrator.
// OAuth secrets come from the environment, not flags, so they never show up
// in process listings.
func createOrchestrator(ctx context.Context, flgs *Flags, logger *zap.Logger) (*inboundplan.Orchestrator, error) {
	cfg := &inboundplan.Config{
		SellerID:       flgs.SellerID,
		MarketplaceID:  flgs.MarketplaceID,
		PlanNamePrefix: flgs.PlanNamePrefix,
		ShipFrom: inboundplan.Address{
			Name:            flgs.ShipFromName,
			AddressLine1:    flgs.ShipFromLine1,
			AddressLine2:    flgs.ShipFromLine2,
			City:            flgs.ShipFromCity,
			StateOrProvince: flgs.ShipFromState,
			PostalCode:      flgs.ShipFromPostal,
			CountryCode:     flgs.ShipFromCountry,
			PhoneNumber:     flgs.ShipFromPhone,
			Email:           flgs.ShipFromEmail,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	store := inboundplan.NewStoreFromConfig(awsCfg,
		inboundplan.WithTableName(flgs.TableName),
		inboundplan.WithSettingsTableName(flgs.SettingsTableName),
		inboundplan.WithAWSBaseEndpoint(flgs.EndpointURL),
	)

	brokerCfg := spapi.BrokerConfig{
		TokenEndpoint: flgs.TokenEndpoint,
		ClientID:      os.Getenv("LWA_CLIENT_ID"),
		ClientSecret:  os.Getenv("LWA_CLIENT_SECRET"),
		RefreshToken:  os.Getenv("LWA_REFRESH_TOKEN"),
		RoleARN:       flgs.RoleARN,
		SessionName:   "inboundplan-server",
	}
	if brokerCfg.RefreshToken == "" {
		// Fall back to the settings table so rotated tokens pick up
		// without a deploy.
		setting, err := store.GetSetting(ctx, &inboundplan.GetSettingInput{Key: "refresh_token"})
		if err != nil {
			return nil, err
		}
		brokerCfg.RefreshToken = setting.Value
	}
	broker := spapi.NewBroker(brokerCfg, sts.NewFromConfig(awsCfg))

	api := spapi.NewClient(flgs.GatewayEndpoint, flgs.GatewayRegion, broker,
		spapi.WithLogger(logger),
	)

	return inboundplan.NewOrchestrator(cfg, store, api,
		inboundplan.WithOrchestratorLogger(logger),
	), nil
}

func Execute() {
	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	setDefaultFlags(root, flgs)
}
