package routers

import (
	"clinic-service/internal/app/delivery/http/controllers"
	"clinic-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachPaymentRouter(router chi.Router, middlewares *middlewares.Middlewares, paymentController *controllers.PaymentController) {
	router.Post("/", paymentController.InitializePayment)
	router.Get("/{paymentID}", paymentController.FindPaymentByID)
	router.With(middlewares.RequireSuperadminAPIKey).Post("/{paymentID}/manual-confirmation", paymentController.ConfirmManualPayment)
}
