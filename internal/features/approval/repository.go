package approval

import (
	"context"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StatusRepository interface {
	InsertRows(ctx context.Context, rows []ApprovalStatus) error
	CountByLink(ctx context.Context, linkID primitive.ObjectID) (int64, error)
	ListByLink(ctx context.Context, linkID primitive.ObjectID) ([]ApprovalStatus, error)
	GetRow(ctx context.Context, linkID primitive.ObjectID, identity string) (*ApprovalStatus, error)
	// RecordVerdict flips a still-verifying row to its terminal status. The
	// filter includes the verifying status so a lost race shows up as a
	// zero-match update instead of an overwrite.
	RecordVerdict(ctx context.Context, linkID primitive.ObjectID, identity string,
		status common_models.Status, msg string, vtime time.Time) (bool, error)
	SetCorrelationToken(ctx context.Context, linkID primitive.ObjectID, token string) error
	// ListVerifyingDLP returns DLP rows awaiting a scanner verdict.
	ListVerifyingDLP(ctx context.Context) ([]ApprovalStatus, error)
	// ListVerifyingWithToken returns human rows that were submitted to the
	// audit system and have no decision yet.
	ListVerifyingWithToken(ctx context.Context) ([]ApprovalStatus, error)
	EnsureIndexes(ctx context.Context) error
}

type StatusRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewStatusRepository(mongodb *database.MongodbDB) StatusRepository {
	return &StatusRepositoryImpl{
		Collection: mongodb.DB.Collection("link_approval_status"),
	}
}

func (r *StatusRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "link_id", Value: 1}, {Key: "identity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *StatusRepositoryImpl) InsertRows(ctx context.Context, rows []ApprovalStatus) error {
	docs := make([]interface{}, 0, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, rows[i])
	}
	_, err := r.Collection.InsertMany(ctx, docs)
	return err
}

func (r *StatusRepositoryImpl) CountByLink(ctx context.Context, linkID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"link_id": linkID})
}

func (r *StatusRepositoryImpl) ListByLink(ctx context.Context, linkID primitive.ObjectID) ([]ApprovalStatus, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"link_id": linkID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rows []ApprovalStatus
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StatusRepositoryImpl) GetRow(ctx context.Context, linkID primitive.ObjectID, identity string) (*ApprovalStatus, error) {
	var row ApprovalStatus
	err := r.Collection.FindOne(ctx, bson.M{"link_id": linkID, "identity": identity}).Decode(&row)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *StatusRepositoryImpl) RecordVerdict(ctx context.Context, linkID primitive.ObjectID, identity string,
	status common_models.Status, msg string, vtime time.Time) (bool, error) {

	set := bson.M{"status": status, "vtime": vtime}
	if msg != "" {
		set["msg"] = msg
	}
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"link_id": linkID, "identity": identity, "status": common_models.StatusVerifying},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *StatusRepositoryImpl) SetCorrelationToken(ctx context.Context, linkID primitive.ObjectID, token string) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"link_id": linkID, "identity": bson.M{"$ne": common_models.DLPIdentity}},
		bson.M{"$set": bson.M{"correlation_token": token}})
	return err
}

func (r *StatusRepositoryImpl) ListVerifyingDLP(ctx context.Context) ([]ApprovalStatus, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"identity": common_models.DLPIdentity,
		"status":   common_models.StatusVerifying,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rows []ApprovalStatus
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StatusRepositoryImpl) ListVerifyingWithToken(ctx context.Context) ([]ApprovalStatus, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"identity":          bson.M{"$ne": common_models.DLPIdentity},
		"status":            common_models.StatusVerifying,
		"correlation_token": bson.M{"$nin": bson.A{nil, ""}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rows []ApprovalStatus
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
