package diag

import (
	"context"
	"log/slog"
)

// Logger returns hooks that write every event to logger at Debug level.
// Consume events are skipped unless withElements is set; a large input makes
// them very noisy.
func Logger(logger *slog.Logger, withElements bool) Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return HookFunc(func(ev Event) {
		if ev.Kind == KindConsume && !withElements {
			return
		}
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		attrs := []slog.Attr{
			slog.Int64("seq", ev.Seq),
			slog.String("session", ev.Session),
			slog.String("grammar", ev.Grammar),
			slog.Int("index", ev.Index),
		}
		switch ev.Kind {
		case KindProduce:
			attrs = append(attrs, slog.Int("length", ev.Length), slog.Any("value", ev.Value))
		case KindConsume:
			attrs = append(attrs, slog.Any("value", ev.Value))
		case KindFinish:
			if ev.Err != nil {
				attrs = append(attrs, slog.Any("error", ev.Err))
			}
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, "parse "+string(ev.Kind), attrs...)
	})
}
