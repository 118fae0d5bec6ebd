package driver

import (
	"context"
	"fmt"
	"strconv"

	"pascalc/internal/codegen"
	"pascalc/internal/observ"
	"pascalc/internal/trace"
)

// LowerOptions configures LowerUnit.
type LowerOptions struct {
	Codegen codegen.ProgramOptions

	Disk   *DiskCache  // optional
	Memory *ClassCache // optional
	Timer  *observ.Timer
}

// LowerResult is one lowered unit.
type LowerResult struct {
	Unit    *Unit
	Lowered *codegen.Lowered
	Key     Digest
	Cached  bool
}

// CacheKey identifies the class u lowers to under opts: the unit's content
// hash combined with every option that changes the emitted code.
func CacheKey(u *Unit, opts codegen.Options) Digest {
	ns := opts.Namespace
	if ns == "" && u.Program != nil {
		ns = u.Program.Name
	}
	return combineDigest(u.Hash,
		"namespace", ns,
		"general_while", strconv.FormatBool(opts.GeneralWhileConditions),
		"general_for", strconv.FormatBool(opts.GeneralForStart),
		"class_schema", strconv.Itoa(int(diskCacheSchemaVersion)),
	)
}

// LowerUnit lowers u, consulting the memory and disk caches first. Caches
// are bypassed when a custom expression emitter is configured, since its
// output is not covered by the key.
func LowerUnit(ctx context.Context, u *Unit, opts *LowerOptions) (*LowerResult, error) {
	if u == nil || u.Program == nil {
		return nil, fmt.Errorf("driver: nil unit")
	}
	if opts == nil {
		opts = &LowerOptions{}
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit:"+u.Path, trace.ParentFrom(ctx))
	ctx = trace.WithParent(ctx, span)

	res := &LowerResult{Unit: u, Key: CacheKey(u, opts.Codegen.Options)}
	cacheable := opts.Codegen.Exprs == nil

	if cacheable {
		if l, ok := opts.Memory.Get(u.Path, res.Key); ok {
			res.Lowered, res.Cached = l, true
			span.WithExtra("cache", "memory").End("")
			return res, nil
		}
		var payload DiskPayload
		hit, err := opts.Disk.Get(res.Key, &payload)
		if err != nil {
			// a corrupt entry is rebuilt below
			trace.Point(tracer, trace.ScopeUnit, "cache:corrupt", err.Error(), span.ID())
		}
		if hit {
			res.Lowered = &codegen.Lowered{Class: payload.Class, Stats: payload.Stats}
			res.Cached = true
			opts.Memory.Put(u.Path, res.Key, res.Lowered)
			span.WithExtra("cache", "disk").End("")
			return res, nil
		}
	}

	err := opts.Timer.Track("lower "+u.Path, func() error {
		l, err := codegen.LowerProgram(ctx, u.Program, u.Types, u.Symbols, opts.Codegen)
		res.Lowered = l
		return err
	})
	if err != nil {
		span.End(err.Error())
		return nil, fmt.Errorf("%s: %w", u.Path, err)
	}
	if cacheable {
		opts.Memory.Put(u.Path, res.Key, res.Lowered)
		payload := &DiskPayload{Unit: u.Path, Class: res.Lowered.Class, Stats: res.Lowered.Stats}
		if err := opts.Disk.Put(res.Key, payload); err != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache:write", err.Error(), span.ID())
		}
	}
	span.WithExtra("statements", strconv.Itoa(res.Lowered.Stats.TotalStatements())).End("")
	return res, nil
}
