package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusfreestore/freestore-backend/api/responses"
	"github.com/campusfreestore/freestore-backend/api/validators"
	"github.com/campusfreestore/freestore-backend/internal/inventory"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
)

// InventoryList serves the staff inventory view with optional filters.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		locationID, err := validators.ParseQueryUUID(r, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStockOnly, err := validators.ParseQueryBool(r, "in_stock_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListRows(r.Context(), inventory.RowFilter{
			Search:      strings.TrimSpace(r.URL.Query().Get("search")),
			LocationID:  locationID,
			ActiveOnly:  activeOnly,
			InStockOnly: inStockOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// InventoryStockCheck groups active rows by location for a floor walk.
func InventoryStockCheck(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		groups, err := svc.StockCheck(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groups)
	}
}

// InventoryStockUpdate applies a signed delta to one row.
func InventoryStockUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var body inventory.StockUpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.StockUpdate(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}

// InventoryEditQuantity replaces a row's count outright after a recount.
func InventoryEditQuantity(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rowID, err := validators.ParsePathUUID(chi.URLParam(r, "inventoryID"), "inventoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inventory.EditQuantityInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.EditQuantity(r.Context(), rowID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}
