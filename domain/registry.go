package domain

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"onedim/types"
)

// Factory 根据参数表创建物理模型
type Factory func(params map[string]any) (Physics, error)

// registry 物理模型注册表
var registry = map[string]Factory{}

// Register 注册物理模型类型，类型名必须唯一
func Register(typ string, f Factory) string {
	if _, ok := registry[typ]; ok {
		log.Fatal().Str("type", typ).Msg("区域类型重复注册")
	}
	registry[typ] = f
	return typ
}

// NewPhysics 根据类型名创建物理模型
func NewPhysics(typ string, params map[string]any) (Physics, error) {
	f, ok := registry[typ]
	if !ok {
		return nil, types.Errorf("new physics", types.ErrNameNotFound, "unknown domain type %q", typ)
	}
	p, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return p, nil
}

// Types 已注册的类型名
func Types() []string {
	list := make([]string, 0, len(registry))
	for k := range registry {
		list = append(list, k)
	}
	sort.Strings(list)
	return list
}

// Decode 将参数表解码到结构体，未知字段视为错误
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return types.Errorf("decode params", types.ErrInvalidArgument, "%v", err)
	}
	return nil
}
