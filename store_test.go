package inboundplan

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type fakeDynamoDB struct {
	GetItemFunc    func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItemFunc    func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItemFunc func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

func (f fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.GetItemFunc != nil {
		return f.GetItemFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func (f fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.PutItemFunc != nil {
		return f.PutItemFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func (f fakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.UpdateItemFunc != nil {
		return f.UpdateItemFunc(ctx, params, optFns...)
	}
	return nil, errors.New("not implemented")
}

func newStoreWithFake(t *testing.T, fake fakeDynamoDB) Store {
	t.Helper()
	return NewStoreFromConfig(aws.Config{}, WithDynamoDB(fake))
}

func marshalRequest(t *testing.T, req *ShipmentRequest) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func storedRequest() *ShipmentRequest {
	return &ShipmentRequest{
		ID:                 "req-1",
		DestinationCountry: "US",
		Version:            3,
		Items: []LineItem{
			{ID: "item-1", SKU: "SKU-A", Quantity: 2},
		},
	}
}

func TestGetRequest(t *testing.T) {
	want := storedRequest()
	s := newStoreWithFake(t, fakeDynamoDB{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			key, ok := params.Key["id"].(*types.AttributeValueMemberS)
			if !ok || key.Value != "req-1" {
				t.Errorf("unexpected key: %v", params.Key)
			}
			if params.ConsistentRead == nil || !*params.ConsistentRead {
				t.Error("reads must be consistent")
			}
			return &dynamodb.GetItemOutput{Item: marshalRequest(t, want)}, nil
		},
	})
	out, err := s.GetRequest(context.Background(), &GetRequestInput{ID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Request, want) {
		t.Errorf("got %+v, want %+v", out.Request, want)
	}
}

func TestGetRequestMissing(t *testing.T) {
	s := newStoreWithFake(t, fakeDynamoDB{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	})
	out, err := s.GetRequest(context.Background(), &GetRequestInput{ID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Request != nil {
		t.Errorf("expected nil request, got %+v", out.Request)
	}

	if _, err := s.GetRequest(context.Background(), &GetRequestInput{}); err == nil {
		t.Error("empty id must fail")
	}
}

func TestClaimPlanID(t *testing.T) {
	claimed := storedRequest()
	claimed.PlanID = "lock:token-1"
	s := newStoreWithFake(t, fakeDynamoDB{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			if params.ConditionExpression == nil {
				t.Error("claim must be conditional")
			}
			if params.ReturnValues != types.ReturnValueAllNew {
				t.Errorf("return values: %v", params.ReturnValues)
			}
			return &dynamodb.UpdateItemOutput{Attributes: marshalRequest(t, claimed)}, nil
		},
	})
	out, err := s.ClaimPlanID(context.Background(), &ClaimPlanIDInput{ID: "req-1", Token: "lock:token-1"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Claimed {
		t.Error("expected the claim to succeed")
	}
	if out.Request.PlanID != "lock:token-1" {
		t.Errorf("plan id: %q", out.Request.PlanID)
	}
}

func TestClaimPlanIDLosesRace(t *testing.T) {
	occupied := storedRequest()
	occupied.PlanID = "wf-existing"
	s := newStoreWithFake(t, fakeDynamoDB{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: marshalRequest(t, occupied)}, nil
		},
	})
	out, err := s.ClaimPlanID(context.Background(), &ClaimPlanIDInput{ID: "req-1", Token: "lock:token-1"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Claimed {
		t.Error("claim should have been rejected")
	}
	if out.Current != "wf-existing" {
		t.Errorf("current: %q", out.Current)
	}
}

func TestReleasePlanIDSwallowsLostToken(t *testing.T) {
	s := newStoreWithFake(t, fakeDynamoDB{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	})
	if _, err := s.ReleasePlanID(context.Background(), &ReleasePlanIDInput{ID: "req-1", Token: "lock:token-1"}); err != nil {
		t.Errorf("a lost token is not an error on release: %v", err)
	}
}

func TestUpdateLineItemsVersionConflict(t *testing.T) {
	s := newStoreWithFake(t, fakeDynamoDB{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
	})
	_, err := s.UpdateLineItems(context.Background(), &UpdateLineItemsInput{
		ID:              "req-1",
		Items:           []LineItem{{ID: "item-1", SKU: "SKU-A", Quantity: 9}},
		ExpectedVersion: 3,
	})
	var conditional *ConditionalCheckFailedError
	if !errors.As(err, &conditional) {
		t.Errorf("expected ConditionalCheckFailedError, got %v", err)
	}
}

func TestSavePlanStateRoundTrip(t *testing.T) {
	saved := storedRequest()
	saved.PlanID = "wf-1"
	saved.PackingOptionID = "po-1"
	saved.Snapshot = &Snapshot{Signature: "sig", PlanID: "wf-1", PackingOptionID: "po-1"}
	s := newStoreWithFake(t, fakeDynamoDB{
		UpdateItemFunc: func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
			if params.ConditionExpression != nil {
				t.Error("saving plan state is unconditional")
			}
			return &dynamodb.UpdateItemOutput{Attributes: marshalRequest(t, saved)}, nil
		},
	})
	out, err := s.SavePlanState(context.Background(), &SavePlanStateInput{
		ID:              "req-1",
		PlanID:          "wf-1",
		PackingOptionID: "po-1",
		Snapshot:        saved.Snapshot,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out.Request.Snapshot, saved.Snapshot) {
		t.Errorf("snapshot: %+v", out.Request.Snapshot)
	}
}

func TestGetSetting(t *testing.T) {
	s := newStoreWithFake(t, fakeDynamoDB{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			item, err := attributevalue.MarshalMap(settingRecord{Key: "refresh_token", Value: "tok"})
			if err != nil {
				t.Fatal(err)
			}
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	})
	out, err := s.GetSetting(context.Background(), &GetSettingInput{Key: "refresh_token"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Value != "tok" {
		t.Errorf("value: %q", out.Value)
	}
}

func TestGetSettingMissing(t *testing.T) {
	s := newStoreWithFake(t, fakeDynamoDB{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	})
	_, err := s.GetSetting(context.Background(), &GetSettingInput{Key: "refresh_token"})
	var notFound *SettingNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected SettingNotFoundError, got %v", err)
	}
}

func TestHandleDynamoDBError(t *testing.T) {
	var conditional *ConditionalCheckFailedError
	if !errors.As(handleDynamoDBError(&types.ConditionalCheckFailedException{}), &conditional) {
		t.Error("conditional check failures must map to ConditionalCheckFailedError")
	}
	var apiErr DynamoDBAPIError
	if !errors.As(handleDynamoDBError(errors.New("boom")), &apiErr) {
		t.Error("other failures must map to DynamoDBAPIError")
	}
}
