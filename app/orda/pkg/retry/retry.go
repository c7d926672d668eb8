// Package retry 在 cenkalti/backoff 之上提供与具体操作无关的重试策略。
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff 为每次调用创建独立的退避状态，同一个 Policy 可以被并发使用
type Backoff func() backoff.BackOff

// Policy 重试策略
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	// Retryable 为 nil 时所有错误都重试
	Retryable func(error) bool
}

// Exponential base, 2*base, 4*base ...
func Exponential(base time.Duration) Backoff {
	return func() backoff.BackOff {
		return &backoff.ExponentialBackOff{
			InitialInterval: base,
			Multiplier:      2,
			MaxInterval:     base << 10,
		}
	}
}

// Linear base*attempt
func Linear(base time.Duration) Backoff {
	return func() backoff.BackOff {
		return &linearBackOff{base: base}
	}
}

// Constant 固定间隔
func Constant(d time.Duration) Backoff {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(d)
	}
}

type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

// Permanent 包装一个不应再重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do 按策略执行 fn，直到成功、遇到不可重试错误、次数耗尽或 ctx 结束
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value 与 Do 相同，但返回 fn 的结果
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := max(p.MaxAttempts, 1)
	var bo backoff.BackOff = &backoff.ZeroBackOff{}
	if p.Backoff != nil {
		bo = p.Backoff()
	}

	var lastErr error
	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return v, nil
	}

	var zero T
	// 次数耗尽时 backoff 原样返回 PermanentError
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return zero, perm.Err
	}
	if ctx.Err() != nil && lastErr != nil && !errors.Is(lastErr, ctx.Err()) {
		return zero, errors.Join(lastErr, err)
	}
	return zero, err
}
