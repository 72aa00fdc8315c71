package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/services"
	"github.com/yoockh/callassist/internal/utils"
)

const (
	DefaultStream = "utterance:stream"
	DefaultGroup  = "analysis-workers"
)

// RedisQueue appends utterance jobs to a Redis stream.
type RedisQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *RedisQueue) Enqueue(ctx context.Context, job services.UtteranceJob) error {
	stream := q.Stream
	if stream == "" {
		stream = DefaultStream
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: jobValues(job),
	}).Err()
}

func jobValues(job services.UtteranceJob) map[string]any {
	return map[string]any{
		"call_id":  job.CallID,
		"sequence": strconv.FormatInt(job.Sequence, 10),
		"speaker":  string(job.Speaker),
		"text":     job.Text,
		"ts_unix":  strconv.FormatInt(job.TSUnix, 10),
	}
}

func jobFromValues(values map[string]any) (services.UtteranceJob, bool) {
	getStr := func(k string) string {
		v, ok := values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	job := services.UtteranceJob{
		CallID:  getStr("call_id"),
		Speaker: models.Speaker(getStr("speaker")),
		Text:    getStr("text"),
	}
	seq, err := strconv.ParseInt(getStr("sequence"), 10, 64)
	if job.CallID == "" || err != nil || seq <= 0 {
		return job, false
	}
	job.Sequence = seq
	job.TSUnix, _ = strconv.ParseInt(getStr("ts_unix"), 10, 64)
	return job, true
}

// Processor analyzes one utterance and applies the result to its call.
type Processor struct {
	Analysis   services.AnalysisService
	Calls      services.CallStateService
	Utterances services.UtteranceService
	Events     events.Publisher
	Logger     *logrus.Logger
}

func (p *Processor) Process(ctx context.Context, job services.UtteranceJob) error {
	log := p.Logger.WithFields(logrus.Fields{
		"component": "worker",
		"call_id":   job.CallID,
		"sequence":  job.Sequence,
	})

	_ = p.Utterances.MarkProcessing(ctx, job.CallID, job.Sequence)
	p.publishStatus(ctx, job, models.StatusProcessing, "analysis processing")

	start := time.Now()
	report := p.Analysis.AnalyzeDetailed(ctx, job.Text)
	procMS := time.Since(start).Milliseconds()

	_, applied, err := p.Calls.Apply(ctx, job.CallID, job.Sequence, report.Update)
	if err != nil {
		log.WithError(err).Warn("apply analytics failed")
		_ = p.Utterances.MarkFailed(ctx, job.CallID, job.Sequence, string(utils.CodeOf(err)))
		p.publishStatus(ctx, job, models.StatusFailed, "call state unavailable")
		metrics.UtterancesProcessed.WithLabelValues(models.StatusFailed).Inc()
		return err
	}

	if err := p.Utterances.MarkResult(ctx, job.CallID, job.Sequence, report, procMS); err != nil {
		log.WithError(err).Warn("utterance log update failed")
	}

	if !applied {
		log.Debug("analysis superseded by a newer utterance")
		p.publishStatus(ctx, job, models.StatusSuperseded, "superseded by a newer utterance")
		metrics.UtterancesProcessed.WithLabelValues(models.StatusSuperseded).Inc()
		return nil
	}

	status := models.StatusDone
	if report.Path == services.PathFallback {
		status = models.StatusFallback
	}

	ev := events.New(events.TypeAnalyticsUpdate, job.CallID)
	ev.Sequence = job.Sequence
	ev.Path = report.Path
	ev.Analytics = &report.Update
	if err := p.Events.Publish(ctx, ev); err != nil {
		log.WithError(err).Debug("analytics event publish failed")
	}
	p.publishStatus(ctx, job, status, "utterance analyzed")

	metrics.UtterancesProcessed.WithLabelValues(status).Inc()
	log.WithFields(logrus.Fields{"path": report.Path, "processing_ms": procMS}).Debug("utterance processed")
	return nil
}

func (p *Processor) publishStatus(ctx context.Context, job services.UtteranceJob, status, msg string) {
	ev := events.New(events.TypeStatus, job.CallID)
	ev.Sequence = job.Sequence
	ev.Status = status
	ev.Message = msg
	_ = p.Events.Publish(ctx, ev)
}

// UtteranceWorkerPool consumes the utterance stream with a consumer group.
type UtteranceWorkerPool struct {
	Redis      *redis.Client
	Processor  *Processor
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *UtteranceWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Processor == nil {
		return errors.New("UtteranceWorkerPool missing dependency: Redis/Processor must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{
		"stream":  p.Stream,
		"group":   p.Group,
		"workers": p.NumWorkers,
	}).Info("utterance workers started")
	return nil
}

func (p *UtteranceWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *UtteranceWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	job, ok := jobFromValues(msg.Values)
	if !ok {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed utterance message")
		metrics.UtterancesProcessed.WithLabelValues(models.StatusFailed).Inc()
		return
	}
	_ = p.Processor.Process(ctx, job)
}
