package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feastly-backend/domain"
	"feastly-backend/entities"
	"feastly-backend/internal/utils/mailing"
	"feastly-backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error

		GetUsers(ctx context.Context, viewerID string, page, limit int) ([]domain.UserResponse, int64, error)
		GetUserByID(ctx context.Context, id string, viewerID string) (domain.UserResponse, error)

		Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user := &entities.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.UserResponse{}, err
	}

	return toUserResponse(user, false), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String())

	return domain.LoginResponse{
		Token: token,
		User:  toUserResponse(user, false),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return toUserResponse(user, false), nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hash)
	}

	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(
		map[string]any{"email": user.Email},
		time.Hour*24,
	)
	if err != nil {
		return err
	}

	mailConfig := mailing.LoadMailConfig()
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", mailConfig.AppURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Follow <a href=%q>this link</a> to reset your password. The link expires in 24 hours.</p>",
		user.FirstName, resetLink,
	)

	return mailing.SendMail(user.Email, "Reset your password", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return err
	}

	email, ok := claims["email"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)

	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) GetUsers(ctx context.Context, viewerID string, page, limit int) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		isSubscribed := false
		if viewerID != "" {
			isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, u.ID.String())
			if err != nil {
				return nil, 0, err
			}
		}
		result = append(result, toUserResponse(u, isSubscribed))
	}

	return result, count, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string, viewerID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, id)
		if err != nil {
			return domain.UserResponse{}, err
		}
	}

	return toUserResponse(user, isSubscribed), nil
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	subscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if subscribed {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	subscription := &entities.Subscription{
		ID:       uuid.New(),
		UserID:   userUUID,
		AuthorID: author.ID,
	}

	if err := s.userRepository.CreateSubscription(ctx, subscription); err != nil {
		// The unique (user_id, author_id) constraint is the guard against a
		// concurrent duplicate insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.toSubscriptionResponse(ctx, author, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	rows, err := s.userRepository.DeleteSubscription(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	authors, count, err := s.userRepository.GetSubscribedAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		res, err := s.toSubscriptionResponse(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, res)
	}

	return result, count, nil
}

func (s *userService) toSubscriptionResponse(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID.String(), recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	count, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID.String())
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	short := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, r := range recipes {
		short = append(short, domain.RecipeShortResponse{
			ID:          r.ID.String(),
			Name:        r.Name,
			ImageURL:    r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	return domain.SubscriptionResponse{
		UserResponse: toUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func toUserResponse(u *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}
