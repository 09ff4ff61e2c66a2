package inboundplan

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fulfillkit/inboundplan/internal/clock"
	"github.com/fulfillkit/inboundplan/internal/constant"
)

// Store is the persistence boundary of the orchestrator: read and
// conditional-update operations on shipment request records plus a simple
// key-value settings table. The only concurrency primitive is the
// compare-and-swap on the plan id field.
type Store interface {
	GetRequest(ctx context.Context, params *GetRequestInput) (*GetRequestOutput, error)
	PutRequest(ctx context.Context, params *PutRequestInput) (*PutRequestOutput, error)
	// ClaimPlanID atomically sets the plan id field to the given lock
	// token, but only if the field is currently empty or already holds
	// this same token. The claim-or-adopt discipline in the orchestrator
	// is built entirely on this call.
	ClaimPlanID(ctx context.Context, params *ClaimPlanIDInput) (*ClaimPlanIDOutput, error)
	// AssignPlanID replaces the caller's lock token with the real remote
	// plan id. It fails if the token is no longer held.
	AssignPlanID(ctx context.Context, params *AssignPlanIDInput) (*AssignPlanIDOutput, error)
	// ReleasePlanID resets the plan id field to empty, but only if it
	// still holds the caller's lock token.
	ReleasePlanID(ctx context.Context, params *ReleasePlanIDInput) (*ReleasePlanIDOutput, error)
	ClearPlanState(ctx context.Context, params *ClearPlanStateInput) (*ClearPlanStateOutput, error)
	SavePlanState(ctx context.Context, params *SavePlanStateInput) (*SavePlanStateOutput, error)
	UpdateLineItems(ctx context.Context, params *UpdateLineItemsInput) (*UpdateLineItemsOutput, error)
	GetSetting(ctx context.Context, params *GetSettingInput) (*GetSettingOutput, error)
	PutSetting(ctx context.Context, params *PutSettingInput) (*PutSettingOutput, error)
}

// DynamoDBAPI is the subset of the DynamoDB client the store uses, extracted
// so tests can fake the database without a live table.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// StoreOptions defines configuration options for the DynamoDB-backed store.
//
// Note: the MarshalMap, UnmarshalMap and BuildExpression fields exist to
// support unit testing and should not be modified in typical use.
type StoreOptions struct {
	DynamoDB          DynamoDBAPI
	TableName         string
	SettingsTableName string
	BaseEndpoint      string
	RetryMaxAttempts  int
	Clock             clock.Clock

	MarshalMap      func(in interface{}) (map[string]types.AttributeValue, error)
	UnmarshalMap    func(m map[string]types.AttributeValue, out interface{}) error
	BuildExpression func(b expression.Builder) (expression.Expression, error)
}

func WithTableName(tableName string) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.TableName = tableName
	}
}

func WithSettingsTableName(tableName string) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.SettingsTableName = tableName
	}
}

func WithDynamoDB(client DynamoDBAPI) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.DynamoDB = client
	}
}

func WithAWSBaseEndpoint(baseEndpoint string) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.BaseEndpoint = baseEndpoint
	}
}

func WithAWSRetryMaxAttempts(retryMaxAttempts int) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.RetryMaxAttempts = retryMaxAttempts
	}
}

func WithStoreClock(c clock.Clock) func(*StoreOptions) {
	return func(o *StoreOptions) {
		o.Clock = c
	}
}

// NewStoreFromConfig creates a DynamoDB-backed store using the provided AWS
// configuration and any additional options.
func NewStoreFromConfig(cfg aws.Config, optFns ...func(*StoreOptions)) Store {
	o := &StoreOptions{
		TableName:         constant.DefaultTableName,
		SettingsTableName: constant.DefaultSettingsTableName,
		RetryMaxAttempts:  constant.DefaultRetryMaxAttempts,
		Clock:             clock.RealClock{},
		MarshalMap:        attributevalue.MarshalMap,
		UnmarshalMap:      attributevalue.UnmarshalMap,
		BuildExpression: func(b expression.Builder) (expression.Expression, error) {
			return b.Build()
		},
	}
	for _, opt := range optFns {
		opt(o)
	}
	s := &StoreImpl{
		tableName:         o.TableName,
		settingsTableName: o.SettingsTableName,
		dynamoDB:          o.DynamoDB,
		clock:             o.Clock,
		marshalMap:        o.MarshalMap,
		unmarshalMap:      o.UnmarshalMap,
		buildExpression:   o.BuildExpression,
	}
	if s.dynamoDB != nil {
		return s
	}
	s.dynamoDB = dynamodb.NewFromConfig(cfg, func(options *dynamodb.Options) {
		options.RetryMaxAttempts = o.RetryMaxAttempts
		if o.BaseEndpoint != "" {
			options.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
	})
	return s
}

// StoreImpl is a concrete implementation of the Store interface. Always use
// NewStoreFromConfig to create an instance.
type StoreImpl struct {
	dynamoDB          DynamoDBAPI
	tableName         string
	settingsTableName string
	clock             clock.Clock
	marshalMap        func(in interface{}) (map[string]types.AttributeValue, error)
	unmarshalMap      func(m map[string]types.AttributeValue, out interface{}) error
	buildExpression   func(b expression.Builder) (expression.Expression, error)
}

type GetRequestInput struct {
	ID string
}

type GetRequestOutput struct {
	Request *ShipmentRequest
}

func (s *StoreImpl) GetRequest(ctx context.Context, params *GetRequestInput) (*GetRequestOutput, error) {
	if params == nil {
		params = &GetRequestInput{}
	}
	if params.ID == "" {
		return &GetRequestOutput{}, &RequestIDNotProvidedError{}
	}
	resp, err := s.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: params.ID},
		},
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return &GetRequestOutput{}, handleDynamoDBError(err)
	}
	if resp.Item == nil {
		return &GetRequestOutput{}, nil
	}
	request := ShipmentRequest{}
	if err := s.unmarshalMap(resp.Item, &request); err != nil {
		return &GetRequestOutput{}, UnmarshalingAttributeError{Cause: err}
	}
	return &GetRequestOutput{Request: &request}, nil
}

type PutRequestInput struct {
	Request *ShipmentRequest
}

type PutRequestOutput struct{}

func (s *StoreImpl) PutRequest(ctx context.Context, params *PutRequestInput) (*PutRequestOutput, error) {
	if params == nil || params.Request == nil {
		return &PutRequestOutput{}, &RequestIDNotProvidedError{}
	}
	item, err := s.marshalMap(params.Request)
	if err != nil {
		return &PutRequestOutput{}, MarshalingAttributeError{Cause: err}
	}
	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return &PutRequestOutput{}, handleDynamoDBError(err)
	}
	return &PutRequestOutput{}, nil
}

type ClaimPlanIDInput struct {
	ID    string
	Token string
}

type ClaimPlanIDOutput struct {
	// Claimed is true when the token now occupies the plan id field,
	// whether this call set it or a previous call by the same invocation
	// already had.
	Claimed bool
	// Current is the value occupying the field when the claim was
	// rejected: a real plan id to adopt, or another invocation's token.
	Current string
	Request *ShipmentRequest
}

func (s *StoreImpl) ClaimPlanID(ctx context.Context, params *ClaimPlanIDInput) (*ClaimPlanIDOutput, error) {
	if params == nil {
		params = &ClaimPlanIDInput{}
	}
	if params.ID == "" {
		return &ClaimPlanIDOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("plan_id"), expression.Value(params.Token)).
			Set(expression.Name("updated_at"), expression.Value(now))).
		WithCondition(expression.Or(
			expression.AttributeNotExists(expression.Name("plan_id")),
			expression.Name("plan_id").Equal(expression.Value("")),
			expression.Name("plan_id").Equal(expression.Value(params.Token)),
		))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &ClaimPlanIDOutput{}, BuildingExpressionError{Cause: err}
	}
	updated, err := s.updateRequest(ctx, params.ID, &expr)
	if err != nil {
		var conditional *ConditionalCheckFailedError
		if !errors.As(err, &conditional) {
			return &ClaimPlanIDOutput{}, err
		}
		current, getErr := s.GetRequest(ctx, &GetRequestInput{ID: params.ID})
		if getErr != nil {
			return &ClaimPlanIDOutput{}, getErr
		}
		if current.Request == nil {
			return &ClaimPlanIDOutput{}, &RequestNotFoundError{ID: params.ID}
		}
		return &ClaimPlanIDOutput{
			Claimed: false,
			Current: current.Request.PlanID,
			Request: current.Request,
		}, nil
	}
	return &ClaimPlanIDOutput{Claimed: true, Current: params.Token, Request: updated}, nil
}

type AssignPlanIDInput struct {
	ID     string
	Token  string
	PlanID string
}

type AssignPlanIDOutput struct {
	Request *ShipmentRequest
}

func (s *StoreImpl) AssignPlanID(ctx context.Context, params *AssignPlanIDInput) (*AssignPlanIDOutput, error) {
	if params == nil {
		params = &AssignPlanIDInput{}
	}
	if params.ID == "" {
		return &AssignPlanIDOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("plan_id"), expression.Value(params.PlanID)).
			Set(expression.Name("updated_at"), expression.Value(now))).
		WithCondition(expression.Name("plan_id").Equal(expression.Value(params.Token)))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &AssignPlanIDOutput{}, BuildingExpressionError{Cause: err}
	}
	updated, err := s.updateRequest(ctx, params.ID, &expr)
	if err != nil {
		return &AssignPlanIDOutput{}, err
	}
	return &AssignPlanIDOutput{Request: updated}, nil
}

type ReleasePlanIDInput struct {
	ID    string
	Token string
}

type ReleasePlanIDOutput struct{}

func (s *StoreImpl) ReleasePlanID(ctx context.Context, params *ReleasePlanIDInput) (*ReleasePlanIDOutput, error) {
	if params == nil {
		params = &ReleasePlanIDInput{}
	}
	if params.ID == "" {
		return &ReleasePlanIDOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("plan_id"), expression.Value("")).
			Set(expression.Name("updated_at"), expression.Value(now))).
		WithCondition(expression.Name("plan_id").Equal(expression.Value(params.Token)))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &ReleasePlanIDOutput{}, BuildingExpressionError{Cause: err}
	}
	if _, err := s.updateRequest(ctx, params.ID, &expr); err != nil {
		var conditional *ConditionalCheckFailedError
		if errors.As(err, &conditional) {
			// Someone else already replaced the token; nothing to release.
			return &ReleasePlanIDOutput{}, nil
		}
		return &ReleasePlanIDOutput{}, err
	}
	return &ReleasePlanIDOutput{}, nil
}

type ClearPlanStateInput struct {
	ID string
}

type ClearPlanStateOutput struct {
	Request *ShipmentRequest
}

func (s *StoreImpl) ClearPlanState(ctx context.Context, params *ClearPlanStateInput) (*ClearPlanStateOutput, error) {
	if params == nil {
		params = &ClearPlanStateInput{}
	}
	if params.ID == "" {
		return &ClearPlanStateOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("plan_id"), expression.Value("")).
			Set(expression.Name("packing_option_id"), expression.Value("")).
			Set(expression.Name("placement_option_id"), expression.Value("")).
			Set(expression.Name("snapshot"), expression.Value(nil)).
			Set(expression.Name("updated_at"), expression.Value(now)))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &ClearPlanStateOutput{}, BuildingExpressionError{Cause: err}
	}
	updated, err := s.updateRequest(ctx, params.ID, &expr)
	if err != nil {
		return &ClearPlanStateOutput{}, err
	}
	return &ClearPlanStateOutput{Request: updated}, nil
}

type SavePlanStateInput struct {
	ID              string
	PlanID          string
	PackingOptionID string
	Snapshot        *Snapshot
}

type SavePlanStateOutput struct {
	Request *ShipmentRequest
}

func (s *StoreImpl) SavePlanState(ctx context.Context, params *SavePlanStateInput) (*SavePlanStateOutput, error) {
	if params == nil {
		params = &SavePlanStateInput{}
	}
	if params.ID == "" {
		return &SavePlanStateOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("plan_id"), expression.Value(params.PlanID)).
			Set(expression.Name("packing_option_id"), expression.Value(params.PackingOptionID)).
			Set(expression.Name("snapshot"), expression.Value(params.Snapshot)).
			Set(expression.Name("updated_at"), expression.Value(now)))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &SavePlanStateOutput{}, BuildingExpressionError{Cause: err}
	}
	updated, err := s.updateRequest(ctx, params.ID, &expr)
	if err != nil {
		return &SavePlanStateOutput{}, err
	}
	return &SavePlanStateOutput{Request: updated}, nil
}

type UpdateLineItemsInput struct {
	ID    string
	Items []LineItem
	// ExpectedVersion guards against concurrent item mutation; the update
	// is rejected when the stored version has moved on.
	ExpectedVersion int
}

type UpdateLineItemsOutput struct {
	Request *ShipmentRequest
}

func (s *StoreImpl) UpdateLineItems(ctx context.Context, params *UpdateLineItemsInput) (*UpdateLineItemsOutput, error) {
	if params == nil {
		params = &UpdateLineItemsInput{}
	}
	if params.ID == "" {
		return &UpdateLineItemsOutput{}, &RequestIDNotProvidedError{}
	}
	now := clock.FormatRFC3339(s.clock.Now())
	builder := expression.NewBuilder().
		WithUpdate(expression.
			Add(expression.Name("version"), expression.Value(1)).
			Set(expression.Name("items"), expression.Value(params.Items)).
			Set(expression.Name("updated_at"), expression.Value(now))).
		WithCondition(expression.Name("version").Equal(expression.Value(params.ExpectedVersion)))
	expr, err := s.buildExpression(builder)
	if err != nil {
		return &UpdateLineItemsOutput{}, BuildingExpressionError{Cause: err}
	}
	updated, err := s.updateRequest(ctx, params.ID, &expr)
	if err != nil {
		return &UpdateLineItemsOutput{}, err
	}
	return &UpdateLineItemsOutput{Request: updated}, nil
}

type GetSettingInput struct {
	Key string
}

type GetSettingOutput struct {
	Value string
}

type settingRecord struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

func (s *StoreImpl) GetSetting(ctx context.Context, params *GetSettingInput) (*GetSettingOutput, error) {
	if params == nil || params.Key == "" {
		return &GetSettingOutput{}, &SettingNotFoundError{}
	}
	resp, err := s.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: params.Key},
		},
		TableName:      aws.String(s.settingsTableName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return &GetSettingOutput{}, handleDynamoDBError(err)
	}
	if resp.Item == nil {
		return &GetSettingOutput{}, &SettingNotFoundError{Key: params.Key}
	}
	record := settingRecord{}
	if err := s.unmarshalMap(resp.Item, &record); err != nil {
		return &GetSettingOutput{}, UnmarshalingAttributeError{Cause: err}
	}
	return &GetSettingOutput{Value: record.Value}, nil
}

type PutSettingInput struct {
	Key   string
	Value string
}

type PutSettingOutput struct{}

func (s *StoreImpl) PutSetting(ctx context.Context, params *PutSettingInput) (*PutSettingOutput, error) {
	if params == nil || params.Key == "" {
		return &PutSettingOutput{}, &SettingNotFoundError{}
	}
	item, err := s.marshalMap(settingRecord{Key: params.Key, Value: params.Value})
	if err != nil {
		return &PutSettingOutput{}, MarshalingAttributeError{Cause: err}
	}
	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.settingsTableName),
		Item:      item,
	})
	if err != nil {
		return &PutSettingOutput{}, handleDynamoDBError(err)
	}
	return &PutSettingOutput{}, nil
}

func (s *StoreImpl) updateRequest(ctx context.Context, id string, expr *expression.Expression) (*ShipmentRequest, error) {
	outcome, err := s.dynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		TableName:                 aws.String(s.tableName),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, handleDynamoDBError(err)
	}
	request := ShipmentRequest{}
	if err := s.unmarshalMap(outcome.Attributes, &request); err != nil {
		return nil, UnmarshalingAttributeError{Cause: err}
	}
	return &request, nil
}

func handleDynamoDBError(err error) error {
	var cause *types.ConditionalCheckFailedException
	if errors.As(err, &cause) {
		return &ConditionalCheckFailedError{Cause: cause}
	}
	return DynamoDBAPIError{Cause: err}
}
