package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/application"
	"github.com/kvakb/szakdogarepo/internal/config"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
)

// PaymentCompletedEvent は決済完了通知のペイロード
type PaymentCompletedEvent struct {
	AccountID        string   `json:"account_id"`
	HoldIDs          []string `json:"hold_ids"`
	PaymentReference string   `json:"payment_reference"`
}

// Finalizer は決済完了時にレンタルを確定する
type Finalizer interface {
	FinalizeCheckout(ctx context.Context, input application.FinalizeCheckoutInput) (*rental.Rental, error)
}

// ErrInvalidEvent は再試行しても処理できないメッセージ
var ErrInvalidEvent = errors.New("決済完了イベントが不正です")

const defaultRetryDelay = time.Second

// messageReader は kafkago.Reader のうち Consumer が使う部分
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer は決済完了トピックを購読しレンタルを確定する
// 同じ決済参照IDの再配信は Finalizer 側で既存レンタルとして扱われる
type Consumer struct {
	finalizer  Finalizer
	reader     messageReader
	topic      string
	retryDelay time.Duration
	log        *zap.Logger
}

func NewConsumer(finalizer Finalizer, cfg *config.KafkaConfig) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentTopic,
		GroupID:  cfg.GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		finalizer:  finalizer,
		reader:     reader,
		topic:      cfg.PaymentTopic,
		retryDelay: defaultRetryDelay,
		log:        logger.Component("payment-consumer"),
	}
}

// Run は ctx がキャンセルされるまでメッセージを処理する
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("決済完了イベントの購読を開始", zap.String("topic", c.topic))
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("メッセージの取得に失敗", zap.Error(err))
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		if err := c.processWithRetry(ctx, m); err != nil {
			// ctx のキャンセル以外はコミットして次へ進む
			if ctx.Err() != nil {
				return nil
			}
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.log.Error("オフセットのコミットに失敗", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// processWithRetry は一時的なエラーの間だけ同じメッセージを再試行する
func (c *Consumer) processWithRetry(ctx context.Context, m kafkago.Message) error {
	for {
		err := c.handleMessage(ctx, m)
		if err == nil || !retryable(err) {
			return err
		}
		c.log.Warn("一時的なエラーのため再試行", zap.Int64("offset", m.Offset), zap.Error(err))
		if !c.wait(ctx) {
			return ctx.Err()
		}
	}
}

// retryable はストア障害とレンタルIDの衝突を再試行の対象にする
func retryable(err error) bool {
	return errors.Is(err, reservation.ErrStoreUnavailable) || errors.Is(err, rental.ErrDuplicateRentalID)
}

// wait は retryDelay だけ待つ。ctx が終了した場合は false を返す
func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}

func (c *Consumer) handleMessage(ctx context.Context, m kafkago.Message) error {
	var event PaymentCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error("メッセージの解析に失敗", zap.Int64("offset", m.Offset), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if event.AccountID == "" || event.PaymentReference == "" || len(event.HoldIDs) == 0 {
		c.log.Error("必須項目が欠けたイベント", zap.Int64("offset", m.Offset), zap.String("payment_reference", event.PaymentReference))
		return ErrInvalidEvent
	}

	r, err := c.finalizer.FinalizeCheckout(ctx, application.FinalizeCheckoutInput{
		AccountID:        event.AccountID,
		HoldIDs:          event.HoldIDs,
		PaymentReference: event.PaymentReference,
	})
	if err != nil {
		if errors.Is(err, hold.ErrHoldNotFound) {
			// 失効済みのカート。返金などの対応は決済側で行う
			c.log.Warn("確定対象の保留中予約が見つからない",
				zap.String("payment_reference", event.PaymentReference),
				zap.Strings("hold_ids", event.HoldIDs),
			)
			return err
		}
		c.log.Error("レンタルの確定に失敗", zap.String("payment_reference", event.PaymentReference), zap.Error(err))
		return err
	}

	c.log.Info("決済完了イベントを処理",
		zap.String("rental_id", r.ID),
		zap.String("payment_reference", event.PaymentReference),
	)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("kafka reader のクローズに失敗: %w", err)
	}
	return nil
}
