package utils

import (
	"math/rand"
	"sync"

	"github.com/Pallinder/go-randomdata"
)

var randomNameLock sync.Mutex

// RandomNameGenerator produces same names sequence on every use,
// so objects without names get stable paths between loads
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) RandomName() string {
	randomNameLock.Lock()
	defer randomNameLock.Unlock()

	if *rng == nil {
		*rng = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}
