package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dealerops.dev/storyline/common/logger"
)

// Capabilities are the derived, read-only facts the claim filter gates on.
// The zero value licenses nothing.
type Capabilities struct {
	Model            string
	RegularCab       bool
	RearSeatPossible bool
	ThirdRowAllowed  bool
}

// thirdRowModel is the one decoded model name whose trims carry a third
// row. Everything else gets third-row claims filtered out.
const thirdRowModel = "Expedition"

// Resolver decodes VINs and derives capability flags, memoizing per VIN.
type Resolver struct {
	decoder Decoder
	cache   *Cache
}

func NewResolver(decoder Decoder, cache *Cache) *Resolver {
	return &Resolver{decoder: decoder, cache: cache}
}

// Capabilities returns the capability set for a VIN. Identifiers that are
// not exactly 17 characters after trimming return the zero value without
// touching the decode service. Decode failures propagate; there is no
// silent fallback to an empty set.
func (r *Resolver) Capabilities(ctx context.Context, vin string) (Capabilities, error) {
	vin = strings.TrimSpace(vin)
	if len(vin) != 17 {
		return Capabilities{}, nil
	}

	if caps, ok := r.cache.Get(vin); ok {
		slog.DebugContext(ctx, "vin capabilities cache hit", "model", caps.Model)
		return caps, nil
	}

	sc := logger.StartSpan(ctx, "vehicle.decode")
	attrs, err := r.decoder.Decode(sc.Context(), strings.ToUpper(vin))
	if err != nil {
		sc.RecordError(err)
		sc.End()
		return Capabilities{}, fmt.Errorf("resolving vehicle capabilities: %w", err)
	}
	sc.End()

	caps := deriveCapabilities(attrs)
	r.cache.Put(vin, caps)

	slog.InfoContext(ctx, "vin decoded",
		"model", caps.Model,
		"regular_cab", caps.RegularCab,
		"rear_seat_possible", caps.RearSeatPossible,
		"third_row_allowed", caps.ThirdRowAllowed)

	return caps, nil
}

func deriveCapabilities(attrs Attributes) Capabilities {
	cabText := strings.ToLower(strings.Join([]string{
		attrs.BodyClass, attrs.Series, attrs.Trim, attrs.Cab,
	}, " "))

	model := strings.TrimSpace(attrs.Model)

	return Capabilities{
		Model:      model,
		RegularCab: strings.Contains(cabText, "regular"),
		RearSeatPossible: strings.Contains(cabText, "supercrew") ||
			strings.Contains(cabText, "supercab") ||
			strings.Contains(cabText, "super cab"),
		ThirdRowAllowed: strings.EqualFold(model, thirdRowModel),
	}
}
