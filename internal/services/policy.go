package services

import "almira/internal/domain"

// Row-level access predicates. Every service method runs one of these before
// touching the row it guards.
//
// They are pure functions over the Principal, whose role was embedded in the
// signed token at login: deciding "is this an admin" never queries the users
// table, so a policy can guard that table without re-entering itself.
//
// A denied read is reported to the caller as domain.ErrNotFound, so a row a
// principal may not see is indistinguishable from a row that does not exist.

// OwnerOrAdmin gates rows with a user_id column: profiles, addresses,
// orders, carts, wishlists, reviews, tickets.
func OwnerOrAdmin(p domain.Principal, ownerID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.ID != "" && p.ID == ownerID
}

// CanSeeProduct restricts non-admins to the live catalog. Draft and archived
// products do not exist for them.
func CanSeeProduct(p domain.Principal, product *domain.Product) bool {
	if p.IsAdmin() {
		return true
	}
	return product.Status == domain.ProductActive || product.Status == domain.ProductOutOfStock
}

// CanSeeReview shows approved reviews to everyone, and pending or rejected
// ones only to their author and admins.
func CanSeeReview(p domain.Principal, r *domain.Review) bool {
	if r.Status == domain.ReviewApproved {
		return true
	}
	return OwnerOrAdmin(p, r.UserID)
}
