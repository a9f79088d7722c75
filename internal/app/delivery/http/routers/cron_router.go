package routers

import (
	"clinic-service/internal/app/delivery/http/controllers"
	"clinic-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachCronRouter(router chi.Router, middlewares *middlewares.Middlewares, ctrl *controllers.CronController) {
	router.Use(middlewares.CronAuth)
	router.Get("/expire-payments", ctrl.ExpirePendingPayments)
	router.Post("/expire-payments", ctrl.ExpirePendingPayments)
}
