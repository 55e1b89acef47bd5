package confbind

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type experimentConfig struct {
	Param1 int
	Param2 int
	Param3 float64
	Param4 string
}

var experimentSchema = MustSchema(
	Required("param1", func(c *experimentConfig, v int) { c.Param1 = v }, ParseInt),
	Required("param2", func(c *experimentConfig, v int) { c.Param2 = v }, ParseInt),
	Defaulted("param3", 2.0, func(c *experimentConfig, v float64) { c.Param3 = v }, ParseFloat),
	Defaulted("param4", "oi", func(c *experimentConfig, v string) { c.Param4 = v }, ParseString),
)

func doubleInt(v Value) (Value, error) {
	n, err := v.AsInt()
	if err != nil {
		return Value{}, err
	}
	return Int(2 * n), nil
}

func newDoublingBinder(opts ...Option) *Binder[experimentConfig] {
	return NewBinder(experimentSchema, append([]Option{WithParser("param2", doubleInt)}, opts...)...)
}

func TestBind(t *testing.T) {
	t.Run("applies custom parse and defaults", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{
			"param1": Int(1),
			"param2": Int(2),
			"param3": Float(4.5),
		})
		require.NoError(t, err)
		assert.Equal(t, experimentConfig{Param1: 1, Param2: 4, Param3: 4.5, Param4: "oi"}, cfg)
	})

	t.Run("required fields only", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{"param1": Int(5), "param2": Int(1)})
		require.NoError(t, err)
		assert.Equal(t, experimentConfig{Param1: 5, Param2: 2, Param3: 2.0, Param4: "oi"}, cfg)
	})

	t.Run("defaults are not parsed", func(t *testing.T) {
		failing := func(Value) (Value, error) { return Value{}, errors.New("must not be called") }
		binder := NewBinder(experimentSchema, WithParser("param3", failing), WithParser("param4", failing))

		cfg, err := binder.Bind(Record{"param1": Int(1), "param2": Int(2)})
		require.NoError(t, err)
		assert.Equal(t, 2.0, cfg.Param3)
		assert.Equal(t, "oi", cfg.Param4)
	})

	t.Run("null defaulted field falls back to default", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{
			"param1": Int(1),
			"param2": Int(2),
			"param4": Null(),
		})
		require.NoError(t, err)
		assert.Equal(t, "oi", cfg.Param4)
	})

	t.Run("present defaulted field is parsed", func(t *testing.T) {
		upper := func(v Value) (Value, error) {
			s, err := v.AsString()
			return String(s + "!"), err
		}
		binder := NewBinder(experimentSchema, WithParser("param4", upper))

		cfg, err := binder.Bind(Record{"param1": Int(1), "param2": Int(2), "param4": String("hey")})
		require.NoError(t, err)
		assert.Equal(t, "hey!", cfg.Param4)
	})

	t.Run("missing required field", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{"param2": Int(2), "param3": Float(1)})
		require.Error(t, err)
		assert.Equal(t, experimentConfig{}, cfg)

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "param1", missing.Field)
		assert.Equal(t, []string{"param2", "param3"}, missing.Present)
		assert.Contains(t, err.Error(), `"param1"`)
	})

	t.Run("custom parse error is returned as is", func(t *testing.T) {
		errBoom := errors.New("boom")
		binder := NewBinder(experimentSchema, WithParser("param2", func(Value) (Value, error) {
			return Value{}, errBoom
		}))

		_, err := binder.Bind(Record{"param1": Int(1), "param2": Int(2)})
		assert.Same(t, errBoom, err)
	})

	t.Run("kind mismatch names the field", func(t *testing.T) {
		_, err := newDoublingBinder().Bind(Record{"param1": String("one"), "param2": Int(2)})
		require.Error(t, err)

		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "param1", fieldErr.Field)

		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, KindInt, typeErr.Want)
		assert.Equal(t, KindString, typeErr.Got)
	})

	t.Run("float for int field is rejected", func(t *testing.T) {
		_, err := newDoublingBinder().Bind(Record{"param1": Float(1), "param2": Int(2)})
		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
	})

	t.Run("int for float field is widened", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{"param1": Int(1), "param2": Int(2), "param3": Int(7)})
		require.NoError(t, err)
		assert.Equal(t, 7.0, cfg.Param3)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		cfg, err := newDoublingBinder().Bind(Record{"param1": Int(1), "param2": Int(2), "extra": String("x")})
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Param1)
	})

	t.Run("strict binder rejects unknown keys", func(t *testing.T) {
		_, err := newDoublingBinder(WithStrict()).Bind(Record{
			"param1": Int(1), "param2": Int(2), "zeta": Int(0), "extra": String("x"),
		})
		var unknown *UnknownFieldError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, []string{"extra", "zeta"}, unknown.Fields)
	})

	t.Run("record is not modified", func(t *testing.T) {
		rec := Record{"param1": Int(1), "param2": Int(2)}
		_, err := newDoublingBinder().Bind(rec)
		require.NoError(t, err)
		assert.True(t, rec.Equal(Record{"param1": Int(1), "param2": Int(2)}))
	})
}

func TestBind_SchemaParse(t *testing.T) {
	negate := func(v Value) (Value, error) {
		n, err := v.AsInt()
		return Int(-n), err
	}
	schema := MustSchema(
		Required("n", func(c *experimentConfig, v int) { c.Param1 = v }, ParseInt).WithParse(negate),
	)

	t.Run("schema parse function applies", func(t *testing.T) {
		cfg, err := NewBinder(schema).Bind(Record{"n": Int(3)})
		require.NoError(t, err)
		assert.Equal(t, -3, cfg.Param1)
	})

	t.Run("binder parser overrides schema parse function", func(t *testing.T) {
		cfg, err := NewBinder(schema, WithParsers(map[string]ParseFunc{"n": doubleInt})).Bind(Record{"n": Int(3)})
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Param1)
	})
}

func TestBind_RoundTrip(t *testing.T) {
	binder := NewBinder(experimentSchema)
	original, err := binder.Bind(Record{"param1": Int(3), "param2": Int(9), "param4": String("hi")})
	require.NoError(t, err)

	again, err := binder.Bind(Record{
		"param1": Int(int64(original.Param1)),
		"param2": Int(int64(original.Param2)),
		"param3": Float(original.Param3),
		"param4": String(original.Param4),
	})
	require.NoError(t, err)
	assert.Equal(t, original, again)
}

func TestBindMap(t *testing.T) {
	cfg, err := newDoublingBinder().BindMap(map[string]any{
		"param1": 1,
		"param2": int64(2),
		"param3": 4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, experimentConfig{Param1: 1, Param2: 4, Param3: 4.5, Param4: "oi"}, cfg)

	_, err = newDoublingBinder().BindMap(map[string]any{"param1": struct{}{}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to convert map")
}

func TestBind_Concurrent(t *testing.T) {
	binder := newDoublingBinder()

	var wg sync.WaitGroup
	results := make([]experimentConfig, 32)
	errs := make([]error, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = binder.Bind(Record{"param1": Int(int64(i)), "param2": Int(1)})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, i, results[i].Param1)
		assert.Equal(t, 2, results[i].Param2)
	}
}

type nested struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Retries int    `mapstructure:"retries"`
}

func TestParseInto(t *testing.T) {
	t.Run("decodes map into struct", func(t *testing.T) {
		out, err := ParseInto[nested](Map(map[string]Value{
			"host": String("localhost"),
			"port": Int(6379),
		}))
		require.NoError(t, err)
		assert.Equal(t, nested{Host: "localhost", Port: 6379}, out)
	})

	t.Run("rejects unused keys", func(t *testing.T) {
		_, err := ParseInto[nested](Map(map[string]Value{"hots": String("typo")}))
		assert.Error(t, err)
	})

	t.Run("rejects non-map", func(t *testing.T) {
		_, err := ParseInto[nested](String("localhost:6379"))
		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, KindMap, typeErr.Want)
	})

	t.Run("rejects weak conversion", func(t *testing.T) {
		_, err := ParseInto[nested](Map(map[string]Value{"port": String("6379")}))
		assert.Error(t, err)
	})
}
