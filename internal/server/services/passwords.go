package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/dmitrijs2005/meanstack/internal/server/auth"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/dmitrijs2005/meanstack/internal/server/repositories/repomanager"
)

const (
	resetTokenBytes = 20
	resetTokenTTL   = time.Hour
)

var (
	errCurrentPassword = common.Unprocessable(common.CodeWrongPassword, "Current password is incorrect")
	errPasswordsDiffer = common.Unprocessable(common.CodeMissingParams, "Passwords do not match")
	errResetToken      = common.NewAppError(common.CodeInvalidUserToken, http.StatusBadRequest, "Password reset token is invalid or has expired.")
)

var makeResetToken = func() (string, error) {
	return common.MakeRandHexString(resetTokenBytes)
}

// PasswordService changes passwords and runs the forgot/reset flow.
type PasswordService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.JWTStrategy
	mailer      Mailer
	appTitle    string
	logger      logging.Logger
}

func NewPasswordService(m repomanager.RepositoryManager, tokens *auth.JWTStrategy, mailer Mailer, appTitle string, logger logging.Logger) *PasswordService {
	return &PasswordService{
		repomanager: m,
		tokens:      tokens,
		mailer:      mailer,
		appTitle:    appTitle,
		logger:      logger.With("module", "password_service"),
	}
}

func (s *PasswordService) ChangePassword(ctx context.Context, userID, current, next, verify string) (*Message, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !u.Authenticate(current) {
		return nil, errCurrentPassword
	}
	if next != verify {
		return nil, errPasswordsDiffer
	}

	u.Password = next
	now := timeNow()
	u.Updated = &now
	if err := u.PrepareSave(true); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return &Message{Message: "Password changed successfully"}, nil
}

// Forgot stores a reset token on the account and mails the reset link.
// resetURL is the absolute URL the token is appended to.
func (s *PasswordService) Forgot(ctx context.Context, email, resetURL string) (*Message, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAppError(common.CodeUserNotFound, http.StatusBadRequest, "No account with that email has been found")
		}
		return nil, err
	}

	if u.Provider != models.ProviderLocal {
		return nil, common.NewAppError(common.CodeMissingParams, http.StatusBadRequest,
			"It seems like you signed up using your "+u.Provider+" account, please sign in using that provider.")
	}

	token, err := makeResetToken()
	if err != nil {
		return nil, err
	}
	expires := timeNow().Add(resetTokenTTL)
	u.ResetPasswordToken = token
	u.ResetPasswordExpires = &expires

	if err := repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	link := resetURL + token
	body := fmt.Sprintf(`<p>Dear %s,</p><p>You have requested to have your password reset for your account at %s.</p>`+
		`<p>Please visit this url to reset your password:</p><p><a href="%s">%s</a></p>`+
		`<p>If you didn't make this request, you can ignore this email.</p><p>The %s Support Team</p>`,
		html.EscapeString(u.DisplayName), html.EscapeString(s.appTitle), link, link, html.EscapeString(s.appTitle))

	if err := s.mailer.Send(ctx, u.Email, "Password Reset", body); err != nil {
		s.logger.Error(ctx, "reset mail failed", "user_id", u.ID, "error", err)
		return nil, common.NewAppError(common.CodeUnknownError, http.StatusBadRequest, "Failure sending email")
	}

	return &Message{Message: "An email has been sent to the provided email with further instructions."}, nil
}

// ValidateResetToken reports whether token belongs to an account and has
// not expired.
func (s *PasswordService) ValidateResetToken(ctx context.Context, token string) (bool, error) {
	_, err := s.repomanager.Users().GetByResetToken(ctx, token, timeNow())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Reset sets a new password from a reset token and signs the user in.
func (s *PasswordService) Reset(ctx context.Context, token, next, verify string) (*AuthPayload, error) {
	repo := s.repomanager.Users()

	u, err := repo.GetByResetToken(ctx, token, timeNow())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errResetToken
		}
		return nil, err
	}

	if next != verify {
		return nil, errPasswordsDiffer
	}

	u.Password = next
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	now := timeNow()
	u.Updated = &now

	if err := u.PrepareSave(true); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	body := fmt.Sprintf(`<p>Dear %s,</p><p>This is a confirmation that the password for your account has just been changed.</p><p>The %s Support Team</p>`,
		html.EscapeString(u.DisplayName), html.EscapeString(s.appTitle))
	if err := s.mailer.Send(ctx, u.Email, "Your password has been changed", body); err != nil {
		s.logger.Warn(ctx, "password changed mail failed", "user_id", u.ID, "error", err)
	}

	return newPayload(s.tokens, u)
}
