package controllers

import (
	"net/http"
	"sync"
	"time"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type CronController struct {
	Log            *zap.Logger
	PaymentUsecase contracts.PaymentUsecase
}

var (
	cronControllerInstance *CronController
	onceCronController     sync.Once
)

func NewCronController(logger *zap.Logger, paymentUsecase contracts.PaymentUsecase) *CronController {
	onceCronController.Do(func() {
		cronControllerInstance = &CronController{
			Log:            logger,
			PaymentUsecase: paymentUsecase,
		}
	})
	return cronControllerInstance
}

// ExpirePendingPayments lets an external scheduler trigger the same sweep the
// in-process worker runs. The summary is returned bare, without the envelope.
func (ctrl *CronController) ExpirePendingPayments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := utils.GetRequestID(r.Context())

	summary, err := ctrl.PaymentUsecase.ExpirePendingPayments(r.Context())
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "pending_payments_swept", requestID,
		zap.Int(constvars.LoggingSweepTotalCheckedKey, summary.TotalChecked),
		zap.Int("expired", summary.Expired),
		zap.Int("verified_completed", summary.VerifiedCompleted),
		zap.Int("marked_failed", summary.MarkedFailed),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.WriteJSON(w, constvars.StatusOK, summary)
}
