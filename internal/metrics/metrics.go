// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetricsCollector は認証サブシステムのメトリクス収集インターフェース。
// ハンドラーと認可ゲートから利用する。
type AuthMetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordRegistration()
	RecordTokenVerifyFailure(reason string)
	RecordRevokedDenial()
	RecordRevocation()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess    prometheus.Counter
	loginFailure    prometheus.Counter
	registrations   prometheus.Counter
	tokenVerifyFail *prometheus.CounterVec
	revokedDenials  prometheus.Counter
	revocations     prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_failure_total",
			Help: "ログイン失敗の合計数",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
		tokenVerifyFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_token_verify_failure_total",
			Help: "トークン検証失敗の理由別合計数",
		}, []string{"reason"}),
		revokedDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_revoked_denial_total",
			Help: "失効済みトークン・ユーザーによる拒否の合計数",
		}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_revocations_total",
			Help: "作成された失効レコードの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.registrations,
		c.tokenVerifyFail,
		c.revokedDenials,
		c.revocations,
		c.httpStatus,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailure.Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordTokenVerifyFailure はトークン検証失敗を理由別に記録する。
// reasonはexpired / bad_signature / malformedのいずれか。
func (c *Collector) RecordTokenVerifyFailure(reason string) {
	c.tokenVerifyFail.WithLabelValues(reason).Inc()
}

// RecordRevokedDenial は失効による拒否を記録する。
func (c *Collector) RecordRevokedDenial() {
	c.revokedDenials.Inc()
}

// RecordRevocation は失効レコードの作成を記録する。
func (c *Collector) RecordRevocation() {
	c.revocations.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(statusLabel(statusCode)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsパスにメトリクスハンドラーを配置したmuxを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ AuthMetricsCollector = (*Collector)(nil)
