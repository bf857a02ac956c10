package chain

import (
	"context"
	"strings"
	"time"

	"go-shareguard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ChainRepository interface {
	// ReplaceDepartmentChain removes any chain stored for the department and
	// inserts the new one. Chains are replaced wholesale, never patched.
	ReplaceDepartmentChain(ctx context.Context, department string, steps Chain) error
	GetDepartmentChain(ctx context.Context, department string) (*ApprovalChain, error)
	CountDepartments(ctx context.Context) (int64, error)

	ReplaceUserChain(ctx context.Context, user string, steps Chain) error
	GetUserChain(ctx context.Context, user string) (*UserApprovalChain, error)
	DeleteUserChain(ctx context.Context, user string) error
	CountUsers(ctx context.Context) (int64, error)
	ListUserChains(ctx context.Context) ([]UserApprovalChain, error)

	// AllEmails returns every reviewer identity referenced by any stored
	// chain, lowercased.
	AllEmails(ctx context.Context) ([]string, error)
}

type ChainRepositoryImpl struct {
	DeptCollection *mongo.Collection
	UserCollection *mongo.Collection
}

func NewChainRepository(mongodb *database.MongodbDB) ChainRepository {
	return &ChainRepositoryImpl{
		DeptCollection: mongodb.DB.Collection("approval_chains"),
		UserCollection: mongodb.DB.Collection("user_approval_chains"),
	}
}

func (r *ChainRepositoryImpl) ReplaceDepartmentChain(ctx context.Context, department string, steps Chain) error {
	if _, err := r.DeptCollection.DeleteMany(ctx, bson.M{"department": department}); err != nil {
		return err
	}
	_, err := r.DeptCollection.InsertOne(ctx, ApprovalChain{
		Department: department,
		Steps:      steps,
		UpdatedAt:  time.Now(),
	})
	return err
}

func (r *ChainRepositoryImpl) GetDepartmentChain(ctx context.Context, department string) (*ApprovalChain, error) {
	var c ApprovalChain
	err := r.DeptCollection.FindOne(ctx, bson.M{"department": department}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChainRepositoryImpl) CountDepartments(ctx context.Context) (int64, error) {
	return r.DeptCollection.CountDocuments(ctx, bson.M{})
}

func (r *ChainRepositoryImpl) ReplaceUserChain(ctx context.Context, user string, steps Chain) error {
	user = strings.ToLower(user)
	if _, err := r.UserCollection.DeleteMany(ctx, bson.M{"user": user}); err != nil {
		return err
	}
	_, err := r.UserCollection.InsertOne(ctx, UserApprovalChain{
		User:      user,
		Steps:     steps,
		UpdatedAt: time.Now(),
	})
	return err
}

func (r *ChainRepositoryImpl) GetUserChain(ctx context.Context, user string) (*UserApprovalChain, error) {
	var c UserApprovalChain
	err := r.UserCollection.FindOne(ctx, bson.M{"user": strings.ToLower(user)}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChainRepositoryImpl) DeleteUserChain(ctx context.Context, user string) error {
	_, err := r.UserCollection.DeleteMany(ctx, bson.M{"user": strings.ToLower(user)})
	return err
}

func (r *ChainRepositoryImpl) CountUsers(ctx context.Context) (int64, error) {
	return r.UserCollection.CountDocuments(ctx, bson.M{})
}

func (r *ChainRepositoryImpl) ListUserChains(ctx context.Context) ([]UserApprovalChain, error) {
	cursor, err := r.UserCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var chains []UserApprovalChain
	if err = cursor.All(ctx, &chains); err != nil {
		return nil, err
	}
	return chains, nil
}

func (r *ChainRepositoryImpl) AllEmails(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	cursor, err := r.DeptCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var deptChains []ApprovalChain
	if err = cursor.All(ctx, &deptChains); err != nil {
		return nil, err
	}
	for _, c := range deptChains {
		for _, e := range c.Steps.Emails() {
			seen[strings.ToLower(e)] = struct{}{}
		}
	}

	userChains, err := r.ListUserChains(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range userChains {
		for _, e := range c.Steps.Emails() {
			seen[strings.ToLower(e)] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	return out, nil
}
