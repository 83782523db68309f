package rpc

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/runger/heroes/internal/hero"
)

// HeroToStruct encodes h as {"id": <number>, "name": <string>}.
func HeroToStruct(h hero.Hero) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":   structpb.NewNumberValue(float64(h.ID)),
		"name": structpb.NewStringValue(h.Name),
	}}
}

// HeroFromStruct decodes a hero. A missing id decodes as 0.
func HeroFromStruct(s *structpb.Struct) (hero.Hero, error) {
	if s == nil {
		return hero.Hero{}, fmt.Errorf("hero message is empty")
	}

	var h hero.Hero
	if v, ok := s.GetFields()["id"]; ok {
		n, isNum := v.GetKind().(*structpb.Value_NumberValue)
		if !isNum {
			return hero.Hero{}, fmt.Errorf("hero id must be a number")
		}
		if n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 0 || n.NumberValue > math.MaxInt32 {
			return hero.Hero{}, fmt.Errorf("invalid hero id %v", n.NumberValue)
		}
		h.ID = int(n.NumberValue)
	}
	if v, ok := s.GetFields()["name"]; ok {
		str, isStr := v.GetKind().(*structpb.Value_StringValue)
		if !isStr {
			return hero.Hero{}, fmt.Errorf("hero name must be a string")
		}
		h.Name = str.StringValue
	}
	return h, nil
}

// HeroesToList encodes heroes as a list of structs.
func HeroesToList(heroes []hero.Hero) *structpb.ListValue {
	values := make([]*structpb.Value, len(heroes))
	for i, h := range heroes {
		values[i] = structpb.NewStructValue(HeroToStruct(h))
	}
	return &structpb.ListValue{Values: values}
}

// HeroesFromList decodes a list of structs. A nil list decodes as empty.
func HeroesFromList(list *structpb.ListValue) ([]hero.Hero, error) {
	heroes := make([]hero.Hero, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		h, err := HeroFromStruct(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("hero %d: %w", i, err)
		}
		heroes = append(heroes, h)
	}
	return heroes, nil
}
