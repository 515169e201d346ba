package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/plank-dev/plank/db"
	"github.com/plank-dev/plank/internal/apperrors"
	"github.com/plank-dev/plank/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	*base
}

type UpdateUserInput struct {
	Name  *string
	Image *string
}

func (s *UserService) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User

	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}

	return &user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := findUserByEmail(s.db.WithContext(ctx), email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, apperrors.NotFound("User not found with email: %s", email)
	}

	return user, nil
}

// Login is the demo sign-in: an unknown email gets a placeholder account.
// Users that registered with a password must present it.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var user *models.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = findOrCreateUserByEmail(tx, email)
		return err
	})

	if err != nil {
		return nil, err
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
	}

	return user, nil
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name, err := requireText(name, "Name")
	if err != nil {
		return nil, err
	}

	email, err = s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user := models.User{Name: name, Email: email}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findUserByEmail(tx, email)
		if err != nil {
			return err
		}

		if existing != nil {
			return apperrors.Conflict("Email already exists")
		}

		if err := tx.Create(&user).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return apperrors.Conflict("Email already exists")
			}
			return fmt.Errorf("creating user: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	updates := map[string]interface{}{}

	if input.Name != nil {
		name, err := requireText(*input.Name, "Name")
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}

	if input.Image != nil {
		updates["image"] = strings.TrimSpace(*input.Image)
	}

	if len(updates) == 0 {
		return nil, apperrors.Validation("No valid fields to update")
	}

	return s.update(ctx, id, updates)
}

func (s *UserService) SetAvatar(ctx context.Context, id, image string) (*models.User, error) {
	return s.update(ctx, id, map[string]interface{}{"image": image})
}

func (s *UserService) update(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if isNotFound(err) {
				return apperrors.NotFound("User not found")
			}
			return err
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).First(&user).Error
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Delete removes the user row only. Comments, tasks and memberships keep
// pointing at the deleted id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})

	if result.Error != nil {
		return fmt.Errorf("deleting user %s: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NotFound("User not found")
	}

	return nil
}

// findUserByEmail returns nil, nil when no user has that email.
func findUserByEmail(tx *gorm.DB, email string) (*models.User, error) {
	var user models.User

	if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}

	return &user, nil
}

// findOrCreateUserByEmail creates a placeholder user named after the email's
// local part. A concurrent insert of the same email is absorbed by the
// ON CONFLICT clause and the winner's row is returned.
func findOrCreateUserByEmail(tx *gorm.DB, email string) (*models.User, error) {
	user, err := findUserByEmail(tx, email)
	if err != nil || user != nil {
		return user, err
	}

	placeholder := models.User{
		Name:  strings.SplitN(email, "@", 2)[0],
		Email: email,
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user, err = findUserByEmail(tx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, fmt.Errorf("user %s vanished after insert", email)
	}

	return user, nil
}
