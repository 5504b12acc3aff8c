package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nicksonlangat/clinicsync-api/internal/clinic"
	"github.com/nicksonlangat/clinicsync-api/internal/handler"
	"github.com/nicksonlangat/clinicsync-api/internal/order"
	"github.com/nicksonlangat/clinicsync-api/internal/product"
	"github.com/nicksonlangat/clinicsync-api/internal/reservation"
	"github.com/nicksonlangat/clinicsync-api/internal/vendors"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Orders       order.Service
	Products     product.Service
	Vendors      vendors.Service
	Clinics      clinic.Service
	Reservations reservation.Service
}

func NewRouter(svcs Services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	handler.NewOrderHandler(svcs.Orders).RegisterRoutes(r)
	handler.NewProductHandler(svcs.Products).RegisterRoutes(r)
	handler.NewVendorHandler(svcs.Vendors).RegisterRoutes(r)
	handler.NewClinicHandler(svcs.Clinics).RegisterRoutes(r)
	handler.NewReservationHandler(svcs.Reservations).RegisterRoutes(r)

	return r
}
