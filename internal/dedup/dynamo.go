package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/segment"
)

// DynamoDB key layout: one item per session.
const (
	pkPrefix = "SEEN#"
	skPoints = "POINTS"
)

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// seenItem is the stored shape of a session.
type seenItem struct {
	Points    [][]float64 `dynamodbav:"points"`
	UpdatedAt string      `dynamodbav:"updatedAt"`
}

// DynamoStore keeps a session's points in a single DynamoDB item.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	session   string
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a store for one session in the given table. The
// client is normally a *dynamodb.Client built from the shared AWS config.
func NewDynamoStore(client dynamoAPI, tableName, session string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, session: session}
}

func (s *DynamoStore) Describe() string {
	return fmt.Sprintf("dynamodb:%s/%s", s.tableName, s.session)
}

func (s *DynamoStore) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pkPrefix + s.session},
		"SK": &types.AttributeValueMemberS{Value: skPoints},
	}
}

// Load reads the session item. A missing or unreadable item yields no points.
func (s *DynamoStore) Load(ctx context.Context) ([]segment.Point, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem session=%s: %w", s.session, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item seenItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		log.Warn().Err(err).Str("session", s.session).Msg("Seen item is corrupt; starting empty")
		return nil, nil
	}

	points := make([]segment.Point, 0, len(item.Points))
	for _, pair := range item.Points {
		if len(pair) != 2 {
			continue
		}
		points = append(points, segment.Point{X: pair[0], Y: pair[1]})
	}
	return points, nil
}

// Save overwrites the session item with points.
func (s *DynamoStore) Save(ctx context.Context, points []segment.Point) error {
	item := seenItem{
		Points:    make([][]float64, len(points)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for i, p := range points {
		item.Points[i] = []float64{p.X, p.Y}
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	for k, v := range s.key() {
		av[k] = v
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem session=%s: %w", s.session, err)
	}
	return nil
}
