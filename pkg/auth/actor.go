package auth

import (
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	UserID   uuid.UUID
	VendorID *uuid.UUID
	Role     enums.UserRole
}

// ActorFromClaims maps verified token claims to an Actor.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, VendorID: claims.VendorID, Role: claims.Role}
}

func (a Actor) IsAdmin() bool { return a.Role == enums.RoleAdmin }

// CanAccess reports whether the actor may read a resource owned by ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin() || (a.UserID != uuid.Nil && a.UserID == ownerID)
}

// OwnsVendor reports whether the actor is the given vendor or an admin.
func (a Actor) OwnsVendor(vendorID *uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return vendorID != nil && a.VendorID != nil && *a.VendorID == *vendorID
}
