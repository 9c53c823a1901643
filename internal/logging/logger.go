// Package logging はプロジェクト全体で使う構造化ロガーのインターフェースを定義します。
package logging

import "context"

// Logger は context を受け取る構造化ロガーです。
//
// 可変長引数はキーと値のペアとして扱われます。
//
//	log.Info(ctx, "user registered", "user_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With は指定したキーと値を常に付与する子ロガーを返します。
	With(args ...any) Logger
}
