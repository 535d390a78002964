package resolver

import (
	"context"
	"errors"
	"fmt"

	memberserrors "classbook/internal/members/errors"
	"classbook/internal/members/repository"
	"classbook/pkg/config"
	apperrors "classbook/pkg/errors"
	"classbook/pkg/model"
	"classbook/pkg/sanitizer"
)

// MemberResolver maps a (name, email, phone) tuple to a durable member
// identity, creating one if absent.
type MemberResolver interface {
	Resolve(ctx context.Context, name, email, phone string) (*model.Member, error)
	GetByID(ctx context.Context, id string) (*model.Member, error)
}

type memberResolver struct {
	repo repository.MemberRepository
	cfg  *config.Config
}

func NewMemberResolver(repo repository.MemberRepository, cfg *config.Config) MemberResolver {
	return &memberResolver{
		repo: repo,
		cfg:  cfg,
	}
}

// Resolve finds or creates the member keyed by email. When no email is
// given, a placeholder address is synthesized from the name, so two
// identically-named members without emails resolve to the same record.
// That merge is deliberate: it lets a returning anonymous member be
// recognized across bookings.
func (r *memberResolver) Resolve(ctx context.Context, name, email, phone string) (*model.Member, error) {
	name = sanitizer.SanitizeName(name)
	phone = sanitizer.SanitizePhone(phone)

	if email == "" {
		email = r.SynthesizeEmail(name)
	} else {
		email = sanitizer.SanitizeEmail(email)
	}

	existing, err := r.repo.FindByEmail(ctx, email)
	if err == nil {
		return r.fillMissing(ctx, existing, phone)
	}
	if !errors.Is(err, memberserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up member", err)
	}

	member := &model.Member{
		Name:  name,
		Email: email,
		Phone: phone,
	}
	err = r.repo.Insert(ctx, member)
	if err == nil {
		return member, nil
	}

	// A concurrent writer won the insert; the email keyed row is the
	// durable identity either way.
	if errors.Is(err, memberserrors.ErrDuplicateEmail) {
		winner, findErr := r.repo.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, apperrors.Internal("Failed to resolve member after duplicate create", findErr)
		}
		return winner, nil
	}

	return nil, apperrors.Internal("Failed to create member", err)
}

func (r *memberResolver) GetByID(ctx context.Context, id string) (*model.Member, error) {
	member, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Member", id)
		}
		if errors.Is(err, memberserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid member ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve member", err)
	}
	return member, nil
}

// fillMissing prefers the stored record; a newly supplied phone only lands
// when the stored one is empty.
func (r *memberResolver) fillMissing(ctx context.Context, member *model.Member, phone string) (*model.Member, error) {
	if member.Phone != "" || phone == "" {
		return member, nil
	}
	if err := r.repo.SetPhone(ctx, member.ID, phone); err != nil {
		return nil, apperrors.Internal("Failed to update member phone", err)
	}
	member.Phone = phone
	return member, nil
}

// SynthesizeEmail builds the placeholder address for members booked
// without an email.
func (r *memberResolver) SynthesizeEmail(name string) string {
	return fmt.Sprintf("%s@%s", sanitizer.EmailLocalPart(name), r.cfg.PlaceholderEmailDomain)
}
