package routers

import (
	"clinic-service/internal/app/delivery/http/controllers"
	"clinic-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachWebhookRouter(router chi.Router, middlewares *middlewares.Middlewares, ctrl *controllers.WebhookController) {
	router.Use(middlewares.BodyBuffer)
	router.Post("/", ctrl.HandlePaymentWebhook)
	router.Post("/{provider}", ctrl.HandlePaymentWebhook)
}
