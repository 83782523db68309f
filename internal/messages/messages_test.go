package messages

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_AddAndMessages(t *testing.T) {
	s := NewService()
	s.Add("fetched heroes")
	s.Add("fetched hero id=12")

	assert.Equal(t, []string{"fetched heroes", "fetched hero id=12"}, s.Messages())
	assert.Equal(t, 2, s.Len())
}

func TestService_MessagesReturnsCopy(t *testing.T) {
	s := NewService()
	s.Add("a")
	got := s.Messages()
	got[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.Messages())
}

func TestService_Clear(t *testing.T) {
	s := NewService()
	s.Add("a")
	s.Clear()
	assert.Empty(t, s.Messages())
	assert.Equal(t, 0, s.Len())
}

func TestService_Tail(t *testing.T) {
	s := NewService()
	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("m%d", i))
	}
	assert.Equal(t, []string{"m3", "m4"}, s.Tail(2))
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, s.Tail(10))
	assert.Nil(t, s.Tail(0))
}

func TestService_ConcurrentAdd(t *testing.T) {
	s := NewService()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Add("ignored") })
}
