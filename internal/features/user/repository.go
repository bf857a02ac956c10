package user

import (
	"context"
	"strings"

	"go-shareguard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListSecurityByCompany(ctx context.Context, company string) ([]User, error)
	ListByCompany(ctx context.Context, company string) ([]User, error)
	Create(ctx context.Context, u *User) error
	// SetSecurityGroup makes exactly the listed members the company's
	// security reviewers.
	SetSecurityGroup(ctx context.Context, company string, members []string) error
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection("users"),
	}
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.Collection.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepositoryImpl) ListSecurityByCompany(ctx context.Context, company string) ([]User, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"company": company, "is_security": true, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var users []User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) ListByCompany(ctx context.Context, company string) ([]User, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"company": company})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var users []User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) Create(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(u.Email)
	_, err := r.Collection.InsertOne(ctx, u)
	return err
}

func (r *UserRepositoryImpl) SetSecurityGroup(ctx context.Context, company string, members []string) error {
	lowered := make([]string, 0, len(members))
	for _, m := range members {
		lowered = append(lowered, strings.ToLower(m))
	}

	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"company": company, "is_security": true, "email": bson.M{"$nin": lowered}},
		bson.M{"$set": bson.M{"is_security": false}})
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateMany(ctx,
		bson.M{"company": company, "email": bson.M{"$in": lowered}},
		bson.M{"$set": bson.M{"is_security": true}})
	return err
}
