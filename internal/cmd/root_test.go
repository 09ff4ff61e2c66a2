package cmd

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan"
)

func TestRunRootCommandFactoryError(t *testing.T) {
	wantErr := errors.New("test error")
	factory := CommandFactory{
		CreateOrchestrator: func(ctx context.Context, flgs *Flags, logger *zap.Logger) (*inboundplan.Orchestrator, error) {
			return nil, wantErr
		},
	}
	flags := &Flags{}
	c := factory.CreateRootCommand(flags)
	setDefaultFlags(c, flags)
	c.SetArgs([]string{})
	if err := c.Execute(); !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestSetDefaultFlags(t *testing.T) {
	factory := CommandFactory{}
	flags := &Flags{}
	c := factory.CreateRootCommand(flags)
	setDefaultFlags(c, flags)

	tests := []struct {
		name string
		want string
	}{
		{flagMap.Listen.Name, ":8080"},
		{flagMap.TableName.Name, "inbound-plan-requests"},
		{flagMap.SettingsTableName.Name, "inbound-plan-settings"},
		{flagMap.GatewayEndpoint.Name, "https://sellingpartnerapi-na.amazon.com"},
		{flagMap.GatewayRegion.Name, "us-east-1"},
		{flagMap.TokenEndpoint.Name, "https://api.amazon.com/auth/o2/token"},
		{flagMap.PlanNamePrefix.Name, "Inbound"},
		{"ship-from-country", ""},
	}
	for _, tt := range tests {
		f := c.Flags().Lookup(tt.name)
		if f == nil {
			t.Errorf("flag %q is not registered", tt.name)
			continue
		}
		if f.DefValue != tt.want {
			t.Errorf("flag %q default = %q, want %q", tt.name, f.DefValue, tt.want)
		}
	}
}

func TestCreateOrchestratorMissingConfig(t *testing.T) {
	flags := &Flags{}
	_, err := createOrchestrator(context.Background(), flags, zap.NewNop())
	var missing inboundplan.ConfigMissingError
	if !errors.As(err, &missing) {
		t.Errorf("createOrchestrator() error = %v, want ConfigMissingError", err)
	}
}
