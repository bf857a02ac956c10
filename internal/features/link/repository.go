package link

import (
	"context"
	"time"

	"go-shareguard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type LinkRepository interface {
	Create(ctx context.Context, l *ShareLink) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*ShareLink, error)
	GetByToken(ctx context.Context, token string) (*ShareLink, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]ShareLink, error)
	SetExpiry(ctx context.Context, id primitive.ObjectID, expireAt time.Time) error
	SetBackupDone(ctx context.Context, id primitive.ObjectID) error
	SetResultNotified(ctx context.Context, id primitive.ObjectID) error
	RecordDownload(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ResetDownloads(ctx context.Context, id primitive.ObjectID) error
}

type LinkRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewLinkRepository(mongodb *database.MongodbDB) LinkRepository {
	return &LinkRepositoryImpl{
		Collection: mongodb.DB.Collection("share_links"),
	}
}

func (r *LinkRepositoryImpl) Create(ctx context.Context, l *ShareLink) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, l)
	return err
}

func (r *LinkRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*ShareLink, error) {
	var l ShareLink
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepositoryImpl) GetByToken(ctx context.Context, token string) (*ShareLink, error) {
	var l ShareLink
	err := r.Collection.FindOne(ctx, bson.M{"token": token}).Decode(&l)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepositoryImpl) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]ShareLink, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{
		"ctime": bson.M{"$gte": start, "$lte": end},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var links []ShareLink
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *LinkRepositoryImpl) SetExpiry(ctx context.Context, id primitive.ObjectID, expireAt time.Time) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"expire_at": expireAt}})
	return err
}

func (r *LinkRepositoryImpl) SetBackupDone(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"backup_done": true}})
	return err
}

func (r *LinkRepositoryImpl) SetResultNotified(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"result_notified": true}})
	return err
}

func (r *LinkRepositoryImpl) RecordDownload(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	// First download time is set once; later downloads only bump the counter.
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "first_download_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"first_download_at": at}, "$inc": bson.M{"download_count": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$inc": bson.M{"download_count": 1}})
	}
	return err
}

func (r *LinkRepositoryImpl) ResetDownloads(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"download_count": 0}, "$unset": bson.M{"first_download_at": ""}})
	return err
}
