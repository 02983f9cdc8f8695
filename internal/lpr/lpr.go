// Package lpr talks to license plate recognition backends and normalises
// their answers into domain.LPRResult.
package lpr

import (
	"context"
	"strconv"
	"strings"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

// Recognizer reads the plate in an encoded image. Backend failures are
// returned inside the result; the error is reserved for unusable input.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error)
	Name() string
}

// Messages shown to users of the web UI.
const (
	MsgNotFound     = "ไม่พบป้ายทะเบียนในภาพ"
	MsgNotFoundMock = "ไม่พบป้ายทะเบียนในภาพ (Mock)"
	MsgInvalidKey   = "API Key ไม่ถูกต้องหรือหมดอายุ - กรุณาติดต่อผู้ดูแลระบบ"
	MsgRateLimited  = "API Rate Limit - เรียกใช้บ่อยเกินไป กรุณารอสักครู่"
	MsgTimeout      = "API Timeout - เชื่อมต่อเซิร์ฟเวอร์ช้าเกินไป"
	MsgConnection   = "Connection Error - ไม่สามารถเชื่อมต่อเซิร์ฟเวอร์ได้"
)

// Outcome labels a result for metrics.
func Outcome(r *domain.LPRResult) string {
	switch {
	case r.Found():
		return "found"
	case r.Error == MsgNotFound || r.Error == MsgNotFoundMock:
		return "not_found"
	default:
		return "error"
	}
}

// Transient reports whether r failed for a reason that may clear on its
// own: a timeout, a rate limit, a dropped connection or a 5xx answer.
func Transient(r *domain.LPRResult) bool {
	if r == nil || Outcome(r) != "error" {
		return false
	}
	switch r.Error {
	case MsgTimeout, MsgRateLimited, MsgConnection:
		return true
	}
	return strings.HasPrefix(r.Error, "API Error: 5")
}

// number accepts JSON numbers and numeric strings.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return f
		}
	}
	return 0
}
