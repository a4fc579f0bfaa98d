// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Metrics holds the kernel's Prometheus collectors. The HTTP server updates
// AgentsActive and the HTTP request metrics; nothing in the kernel
// currently records the plan, step, tool, or LLM collectors, so they stay
// at zero unless a caller uses ObserveToolCall/ObserveLLMCall.
type Metrics struct {
	registry *prometheus.Registry

	AgentsActive    prometheus.Gauge
	PlansCreated    *prometheus.CounterVec
	StepsCompleted  *prometheus.CounterVec
	StepDuration    *prometheus.HistogramVec

	LLMCalls        *prometheus.CounterVec
	LLMCallDuration *prometheus.HistogramVec
	LLMTokens       *prometheus.CounterVec
	LLMErrors       *prometheus.CounterVec

	ToolCalls        *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec
	ToolErrors       *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics registers every collector against a fresh registry and
// returns nil, nil when metrics are disabled.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AgentsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_agents_active", Help: "Number of currently live agents.",
		}),
		PlansCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_plans_created_total", Help: "Plans created, by agent model.",
		}, []string{"model"}),
		StepsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_steps_completed_total", Help: "Plan steps completed, by outcome.",
		}, []string{"status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kernel_step_duration_seconds", Help: "Duration of a single plan step's execution.",
		}, []string{"status"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_llm_calls_total", Help: "LLM provider calls, by provider.",
		}, []string{"provider"}),
		LLMCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kernel_llm_call_duration_seconds", Help: "LLM provider call latency.",
		}, []string{"provider"}),
		LLMTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_llm_tokens_total", Help: "Tokens reported by the LLM provider.",
		}, []string{"provider", "direction"}),
		LLMErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_llm_errors_total", Help: "LLM provider call errors.",
		}, []string{"provider"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_tool_calls_total", Help: "Tool dispatches, by tool name.",
		}, []string{"tool"}),
		ToolCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kernel_tool_call_duration_seconds", Help: "Tool dispatch latency.",
		}, []string{"tool"}),
		ToolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_tool_errors_total", Help: "Tool dispatch errors, by tool name.",
		}, []string{"tool"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kernel_http_requests_total", Help: "HTTP requests, by route and status.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "kernel_http_request_duration_seconds", Help: "HTTP request latency, by route.",
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{
		m.AgentsActive, m.PlansCreated, m.StepsCompleted, m.StepDuration,
		m.LLMCalls, m.LLMCallDuration, m.LLMTokens, m.LLMErrors,
		m.ToolCalls, m.ToolCallDuration, m.ToolErrors,
		m.HTTPRequests, m.HTTPDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveToolCall records one tool dispatch's outcome and latency.
func (m *Metrics) ObserveToolCall(tool string, duration time.Duration, err error) {
	m.ToolCalls.WithLabelValues(tool).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if err != nil {
		m.ToolErrors.WithLabelValues(tool).Inc()
	}
}

// ObserveLLMCall records one provider call's outcome, latency, and token
// usage.
func (m *Metrics) ObserveLLMCall(provider string, duration time.Duration, tokens int, err error) {
	m.LLMCalls.WithLabelValues(provider).Inc()
	m.LLMCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if tokens > 0 {
		m.LLMTokens.WithLabelValues(provider, "total").Add(float64(tokens))
	}
	if err != nil {
		m.LLMErrors.WithLabelValues(provider).Inc()
	}
}
