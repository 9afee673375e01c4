//Package httpReceiver accepts experiments over HTTP and runs them on a single model instance
package httpReceiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"lrcSuite/connector"
	"lrcSuite/experiment"
)

//maxBodyBytes limits the size of an experiment message
const maxBodyBytes = 32 << 20

//ExperimentRunner is implemented by *scenario.Transformer and *connector.Connector
type ExperimentRunner interface {
	RunExperiment(ctx context.Context, exp *experiment.Experiment) (connector.Results, error)
}

type receiver struct {
	runner   ExperimentRunner
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	//runs on the same instance share file names and must not overlap
	runMux sync.Mutex
}

//experimentReplyMsg is the answer to an experiment message. NaN cells are encoded as null
type experimentReplyMsg struct {
	RunID      string
	RunTimeSec float64
	Results    map[string][]*float64
}

//NewReceiver serves runner. If gatherer is nil /metrics is not served
func NewReceiver(runner ExperimentRunner, gatherer prometheus.Gatherer, logger *zap.Logger) *receiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &receiver{
		runner:   runner,
		gatherer: gatherer,
		logger:   logger,
	}
}

//handleExperiment parses the experiment in the body, runs it and replies with the results
func (recv *receiver) handleExperiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "use POST", http.StatusMethodNotAllowed)
		return
	}
	runID := uuid.New().String()
	logger := recv.logger.With(zap.String("run_id", runID))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		logger.Warn("failed to read body", zap.Error(err))
		return
	}
	defer r.Body.Close()

	exp := experiment.New()
	if err := json.Unmarshal(body, exp); err != nil {
		http.Error(w, "failed to parse body", http.StatusBadRequest)
		logger.Warn("failed to parse body", zap.Error(err))
		return
	}
	if exp.Len() == 0 {
		http.Error(w, "experiment is empty", http.StatusBadRequest)
		return
	}

	logger.Info("running experiment", zap.Int("variables", exp.Len()))
	res, err := recv.runExclusive(r.Context(), exp)
	if err != nil {
		http.Error(w, fmt.Sprintf("experiment %v failed : %v", runID, err), http.StatusInternalServerError)
		logger.Error("experiment failed", zap.Error(err))
		return
	}

	reply := experimentReplyMsg{
		RunID:   runID,
		Results: make(map[string][]*float64, len(res)),
	}
	if runTime, ok := res.RunTime(); ok {
		reply.RunTimeSec = runTime.Seconds()
	}
	for name, values := range res {
		reply.Results[name] = experiment.NullableFloats(values)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&reply); err != nil {
		logger.Warn("failed to write reply", zap.Error(err))
	}
}

//runExclusive runs exp while holding runMux. The lock is released even if the runner panics
func (recv *receiver) runExclusive(ctx context.Context, exp *experiment.Experiment) (connector.Results, error) {
	recv.runMux.Lock()
	defer recv.runMux.Unlock()
	return recv.runner.RunExperiment(ctx, exp)
}

func (recv *receiver) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

func (recv *receiver) Routes() http.Handler {
	router := http.NewServeMux()
	router.Handle("/experiment", http.HandlerFunc(recv.handleExperiment))
	router.Handle("/healthz", http.HandlerFunc(recv.handleHealth))
	if recv.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(recv.gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

//Serve runs srv until ctx is done and shuts it down gracefully afterwards
func Serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	logger.Info("listening", zap.String("addr", srv.Addr))

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("webserver crashed : %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed : %w", err)
	}
	return <-errChan
}
