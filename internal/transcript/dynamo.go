package transcript

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/logger"
)

// sortTimeFormat is fixed width so the range key sorts chronologically.
const sortTimeFormat = "2006-01-02T15:04:05.000000000Z"

type dynamoAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type DynamoOptions struct {
	Table  string
	Region string
	// Endpoint points at DynamoDB Local. Dummy static credentials are used
	// with it.
	Endpoint string
}

// DynamoArchive stores one item per message keyed by UserID and Timestamp.
type DynamoArchive struct {
	client dynamoAPI
	table  string
}

func NewDynamoArchive(ctx context.Context, opts DynamoOptions) (*DynamoArchive, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: opts.Endpoint}, nil
		})
		loadOpts = append(loadOpts,
			config.WithEndpointResolverWithOptions(resolver),
			config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
				Value: aws.Credentials{AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy"},
			}),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newDynamoArchive(dynamodb.NewFromConfig(cfg), opts.Table), nil
}

func newDynamoArchive(client dynamoAPI, table string) *DynamoArchive {
	return &DynamoArchive{client: client, table: table}
}

// EnsureTable creates the table when it does not exist yet.
func (a *DynamoArchive) EnsureTable(ctx context.Context) error {
	_, err := a.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(a.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("UserID"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("Timestamp"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("UserID"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("Timestamp"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", a.table, err)
	}
	logger.Info(ctx, "Created transcript table", "table", a.table)
	return nil
}

func (a *DynamoArchive) Save(ctx context.Context, e Entry) error {
	_, err := a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item:      itemFromEntry(e),
	})
	if err != nil {
		return fmt.Errorf("save transcript entry: %w", err)
	}
	return nil
}

func (a *DynamoArchive) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := a.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.table),
		KeyConditionExpression: aws.String("UserID = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}

	entries := make([]Entry, 0, len(out.Items))
	for _, item := range out.Items {
		e, err := entryFromItem(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// sortKey orders messages by time, then by position within the session.
func sortKey(e Entry) string {
	return e.Timestamp.UTC().Format(sortTimeFormat) + "#" + e.SessionID + "#" + fmt.Sprintf("%06d", e.Seq)
}

func itemFromEntry(e Entry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"UserID":    &types.AttributeValueMemberS{Value: e.UserID},
		"Timestamp": &types.AttributeValueMemberS{Value: sortKey(e)},
		"SessionID": &types.AttributeValueMemberS{Value: e.SessionID},
		"Seq":       &types.AttributeValueMemberN{Value: strconv.Itoa(e.Seq)},
		"Role":      &types.AttributeValueMemberS{Value: string(e.Role)},
		"Content":   &types.AttributeValueMemberS{Value: e.Text},
	}
}

func entryFromItem(item map[string]types.AttributeValue) (Entry, error) {
	str := func(key string) (string, error) {
		v, ok := item[key].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("transcript item: missing %s", key)
		}
		return v.Value, nil
	}

	var e Entry
	var err error
	if e.UserID, err = str("UserID"); err != nil {
		return Entry{}, err
	}
	key, err := str("Timestamp")
	if err != nil {
		return Entry{}, err
	}
	ts, _, _ := strings.Cut(key, "#")
	if e.Timestamp, err = time.Parse(sortTimeFormat, ts); err != nil {
		return Entry{}, fmt.Errorf("transcript item: timestamp: %w", err)
	}
	if e.SessionID, err = str("SessionID"); err != nil {
		return Entry{}, err
	}
	role, err := str("Role")
	if err != nil {
		return Entry{}, err
	}
	e.Role = conversation.Role(role)
	if e.Text, err = str("Content"); err != nil {
		return Entry{}, err
	}
	if n, ok := item["Seq"].(*types.AttributeValueMemberN); ok {
		e.Seq, _ = strconv.Atoi(n.Value)
	}
	return e, nil
}
