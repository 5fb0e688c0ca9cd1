// repositories/user_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/refchain/commission_backend/models"
)

type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection("users")}
}

// FindActiveByEmail returns the active user with this email, or
// models.ErrNotFound. Deactivated accounts are invisible to login.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email, "isActive": true}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsActive reports whether the user still exists and is active. The JWT
// middleware calls this so tokens from deactivated accounts stop working.
func (r *UserRepository) IsActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"_id": id, "isActive": true})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert stores a new user. Email collisions surface as
// models.ErrDuplicateEmail.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// StampLastLogin records a successful login.
func (r *UserRepository) StampLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": time.Now()}})
	return err
}

// SetTwoFactorSecret stores a fresh TOTP secret. 2FA stays disabled until
// the user verifies a code against it.
func (r *UserRepository) SetTwoFactorSecret(ctx context.Context, id primitive.ObjectID, secret string) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"twoFactorSecret": secret,
		"updatedAt":       time.Now(),
	}})
	return err
}

// EnableTwoFactor flips 2FA on after a successful verification.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"twoFactorEnabled": true,
		"updatedAt":        time.Now(),
	}})
	return err
}

// RemoveByAgency deletes the agency's operator accounts. Used by the agency
// cascade delete.
func (r *UserRepository) RemoveByAgency(ctx context.Context, agencyID primitive.ObjectID) error {
	_, err := r.users.DeleteMany(ctx, bson.M{"agencyId": agencyID})
	return err
}

// CountOperators tallies agency-operator accounts.
func (r *UserRepository) CountOperators(ctx context.Context) (int64, error) {
	return r.users.CountDocuments(ctx, bson.M{"role": models.RoleAgency})
}

// EnsureAdmin creates the super-admin account on first boot if no admin
// exists yet. The password arrives already hashed.
func (r *UserRepository) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	count, err := r.users.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.User{
		Email:    email,
		Password: passwordHash,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	return r.Insert(ctx, admin)
}
