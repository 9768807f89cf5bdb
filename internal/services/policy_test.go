package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"almira/internal/domain"
	"almira/internal/services"
)

func TestOwnerOrAdmin(t *testing.T) {
	owner := domain.Principal{ID: "u1", Role: domain.RoleCustomer}
	other := domain.Principal{ID: "u2", Role: domain.RoleCustomer}

	assert.True(t, services.OwnerOrAdmin(owner, "u1"))
	assert.False(t, services.OwnerOrAdmin(other, "u1"))
	assert.True(t, services.OwnerOrAdmin(admin, "u1"))
	assert.False(t, services.OwnerOrAdmin(domain.Anonymous, "u1"))
	assert.False(t, services.OwnerOrAdmin(domain.Anonymous, ""))
}

func TestCanSeeProduct(t *testing.T) {
	cust := domain.Principal{ID: "u1", Role: domain.RoleCustomer}
	for status, visible := range map[string]bool{
		domain.ProductActive:     true,
		domain.ProductOutOfStock: true,
		domain.ProductDraft:      false,
		domain.ProductArchived:   false,
	} {
		p := &domain.Product{Status: status}
		assert.Equal(t, visible, services.CanSeeProduct(cust, p), "customer sees %s", status)
		assert.Equal(t, visible, services.CanSeeProduct(domain.Anonymous, p), "anon sees %s", status)
		assert.True(t, services.CanSeeProduct(admin, p), "admin sees %s", status)
	}
}

func TestCanSeeReview(t *testing.T) {
	author := domain.Principal{ID: "author", Role: domain.RoleCustomer}
	other := domain.Principal{ID: "other", Role: domain.RoleCustomer}

	approved := &domain.Review{UserID: "author", Status: domain.ReviewApproved}
	pending := &domain.Review{UserID: "author", Status: domain.ReviewPending}

	assert.True(t, services.CanSeeReview(other, approved))
	assert.True(t, services.CanSeeReview(domain.Anonymous, approved))
	assert.False(t, services.CanSeeReview(other, pending))
	assert.False(t, services.CanSeeReview(domain.Anonymous, pending))
	assert.True(t, services.CanSeeReview(author, pending))
	assert.True(t, services.CanSeeReview(admin, pending))
}
