package metrics

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Registry owns an in-process meter provider whose readings are served by the API.
type Registry struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

func NewRegistry() *Registry {
	reader := sdkmetric.NewManualReader()
	return &Registry{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Provider exposes the meter provider, e.g. for otel.SetMeterProvider.
func (r *Registry) Provider() metric.MeterProvider { return r.provider }

// SDK returns the concrete provider for installing as the global one.
func (r *Registry) SDK() *sdkmetric.MeterProvider { return r.provider }

func (r *Registry) Meter() metric.Meter { return r.provider.Meter(meterName) }

func (r *Registry) Shutdown(ctx context.Context) error { return r.provider.Shutdown(ctx) }

// Point is one aggregated reading. Histograms report their sum in Value.
type Point struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value"`
	Count      uint64            `json:"count,omitempty"`
}

// Snapshot collects the current cumulative readings, sorted by name.
func (r *Registry) Snapshot(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	var out []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrMap(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrMap(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Point{Name: m.Name, Attributes: attrMap(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Total sums the values of every point named name whose attributes include match.
func Total(points []Point, name string, match map[string]string) float64 {
	var total float64
	for _, p := range points {
		if p.Name != name || !contains(p.Attributes, match) {
			continue
		}
		total += p.Value
	}
	return total
}

func contains(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func attrMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
