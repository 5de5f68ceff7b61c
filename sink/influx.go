package sink

import (
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/sutralabs/sutra/models"
	"github.com/sutralabs/sutra/utils"
)

// InfluxConfig locates the results database.
type InfluxConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// InfluxSink writes result records as InfluxDB points, one measurement
// per result type, tagged by result id.
type InfluxSink struct {
	client   client.Client
	database string
}

func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("influx sink needs an address")
	}
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect influx: %w", err)
	}
	return &InfluxSink{client: c, database: cfg.Database}, nil
}

func (s *InfluxSink) WriteBacktest(result *models.BacktestResult) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "ms",
	})
	if err != nil {
		return err
	}

	fields := utils.FieldMap(result.Metrics)
	fields["final_equity"] = result.EquityCurve.Final()
	fields["rejected_orders"] = result.RejectedOrders
	tags := map[string]string{
		"backtest_id": result.ID,
		"status":      string(result.Status),
	}
	pt, err := client.NewPoint("backtest_result", tags, fields, time.Now())
	if err != nil {
		return err
	}
	bp.AddPoint(pt)

	// Daily equity samples so dashboards can chart the curve.
	for _, point := range result.EquityCurve {
		ept, err := client.NewPoint("equity",
			map[string]string{"backtest_id": result.ID},
			map[string]interface{}{"equity": point.Equity},
			point.Date)
		if err != nil {
			return err
		}
		bp.AddPoint(ept)
	}
	return s.client.Write(bp)
}

func (s *InfluxSink) WriteOptimization(result *models.OptimizationResult) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "ms",
	})
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"train_objective":      result.TrainObjective,
		"validation_objective": result.ValidationObjective,
		"trial_count":          result.TrialCount,
		"execution_seconds":    result.ExecutionTime.Seconds(),
		"best_params":          utils.CreateKeyValuePairs(result.BestParams),
	}
	if result.TestObjective != nil {
		fields["test_objective"] = *result.TestObjective
	}
	tags := map[string]string{
		"optimization_id": result.ID,
		"status":          string(result.Status),
	}
	pt, err := client.NewPoint("optimization_result", tags, fields, time.Now())
	if err != nil {
		return err
	}
	bp.AddPoint(pt)
	return s.client.Write(bp)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error { return s.client.Close() }
