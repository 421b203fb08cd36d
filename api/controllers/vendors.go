package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/vendors"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type VendorService interface {
	Register(ctx context.Context, input vendors.RegisterInput) (*models.Vendor, error)
	Login(ctx context.Context, input vendors.LoginInput) (*vendors.LoginResult, error)
	GetVendor(ctx context.Context, actor pkgauth.Actor, vendorID uuid.UUID) (*models.Vendor, error)
	UpdateBankDetails(ctx context.Context, actor pkgauth.Actor, vendorID uuid.UUID, bank vendors.BankDetails) (*models.Vendor, error)
	Approve(ctx context.Context, actor pkgauth.Actor, vendorID uuid.UUID) (*models.Vendor, error)
	Reject(ctx context.Context, actor pkgauth.Actor, vendorID uuid.UUID, reason string) (*models.Vendor, error)
	ListPending(ctx context.Context, actor pkgauth.Actor) ([]models.Vendor, error)
}

type vendorRegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	BusinessName string `json:"businessName" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
}

// VendorRegister opens an application; the fee is paid through
// /vendor/payment/order before an admin can approve it.
func VendorRegister(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		var payload vendorRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Register(r.Context(), vendors.RegisterInput{
			Email:        payload.Email,
			Password:     payload.Password,
			BusinessName: validators.SanitizeString(payload.BusinessName, 200),
			Phone:        strings.TrimSpace(payload.Phone),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"vendor": vendors.ToDTO(vendor)})
	}
}

type vendorLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func VendorLogin(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		var payload vendorLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), vendors.LoginInput{Email: payload.Email, Password: payload.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors.ToLoginDTO(result))
	}
}

func VendorProfile(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		actor, vendorID, ok := requireVendor(w, r, logg)
		if !ok {
			return
		}
		vendor, err := svc.GetVendor(r.Context(), actor, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendor": vendors.ToDTO(vendor)})
	}
}

type bankDetailsRequest struct {
	AccountHolder string `json:"accountHolder" validate:"required,max=120"`
	AccountNumber string `json:"accountNumber" validate:"required,numeric,min=9,max=18"`
	IFSC          string `json:"ifsc" validate:"required,ifsc"`
	BankName      string `json:"bankName" validate:"omitempty,max=120"`
}

func VendorUpdateBankDetails(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		actor, vendorID, ok := requireVendor(w, r, logg)
		if !ok {
			return
		}
		var payload bankDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.UpdateBankDetails(r.Context(), actor, vendorID, vendors.BankDetails{
			AccountHolder: payload.AccountHolder,
			AccountNumber: payload.AccountNumber,
			IFSC:          payload.IFSC,
			BankName:      payload.BankName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendor": vendors.ToDTO(vendor)})
	}
}

func AdminPendingVendors(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.ListPending(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]vendors.VendorDTO, 0, len(rows))
		for i := range rows {
			out = append(out, vendors.ToDTO(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"vendors": out})
	}
}

func AdminApproveVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Approve(r.Context(), actor, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendor": vendors.ToDTO(vendor)})
	}
}

type rejectVendorRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func AdminRejectVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "vendor service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload rejectVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Reject(r.Context(), actor, vendorID, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendor": vendors.ToDTO(vendor)})
	}
}

func requireVendor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (pkgauth.Actor, uuid.UUID, bool) {
	actor, ok := RequireActor(w, r, logg)
	if !ok {
		return pkgauth.Actor{}, uuid.Nil, false
	}
	if actor.VendorID == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
		return pkgauth.Actor{}, uuid.Nil, false
	}
	return actor, *actor.VendorID, true
}
