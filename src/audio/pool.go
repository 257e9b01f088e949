package audio

// ----- Voice Pool ----- //

// voicePool owns a fixed arena of voice slots with an index free list.
// A key owns at most one sounding voice; when every slot is busy, the slot
// whose voice was activated earliest is stolen. Stealing rebuilds the chain
// in place: the envelopes retrigger from their in-flight values, so the
// hand-over does not click.
type voicePool struct {
	slots []*voice
	free  []int
	byKey map[string]int
}

func newVoicePool(size int) *voicePool {
	slots := make([]*voice, size)
	free := make([]int, size)
	for i := range slots {
		slots[i] = newVoice()
		free[i] = size - 1 - i
	}
	return &voicePool{
		slots: slots,
		free:  free,
		byKey: make(map[string]int, size),
	}
}

// noteOn assigns a slot to key. A key that already owns a sounding voice is
// a no-op unless retrigger mode is on, in which case the owning voice's
// envelopes restart from their current values.
func (vp *voicePool) noteOn(p *params, lfoTarget int, freq float64, key string, velocity float64, at int64) {
	if i, ok := vp.byKey[key]; ok && vp.slots[i].sounding {
		if p.retrigger {
			vp.slots[i].retrigger(at)
		}
		return
	}
	var i int
	if n := len(vp.free); n > 0 {
		i = vp.free[n-1]
		vp.free = vp.free[:n-1]
	} else {
		i = vp.oldestSlot()
		// the stolen slot may be a released voice whose key has been
		// re-pressed since; the mapping then points at the newer voice
		// in another slot and must survive the steal
		if j, ok := vp.byKey[vp.slots[i].key]; ok && j == i {
			delete(vp.byKey, vp.slots[i].key)
		}
	}
	vp.slots[i].init(p, lfoTarget, freq, key, velocity, at)
	vp.byKey[key] = i
}

func (vp *voicePool) oldestSlot() int {
	oldest := 0
	var age int64 = -1
	for i, v := range vp.slots {
		if v.sounding && (age < 0 || v.startSample < age) {
			oldest = i
			age = v.startSample
		}
	}
	return oldest
}

// noteOff begins the release of the voice owned by key. The slot itself is
// reclaimed by step once both envelopes have run out.
func (vp *voicePool) noteOff(key string) {
	i, ok := vp.byKey[key]
	if !ok {
		return
	}
	vp.slots[i].noteOff()
	delete(vp.byKey, key)
}

// stopAll forces every sounding voice into a fast release.
func (vp *voicePool) stopAll() {
	for _, v := range vp.slots {
		if v.sounding {
			v.ampEnv.forceRelease(10)
			v.filterEnv.forceRelease(10)
		}
	}
	for key := range vp.byKey {
		delete(vp.byKey, key)
	}
}

// step renders one sample from every sounding voice and reclaims slots
// whose envelopes have finished.
func (vp *voicePool) step(l *lfo) float64 {
	value := 0.0
	for i, v := range vp.slots {
		if !v.sounding {
			continue
		}
		value += v.step(l)
		if v.idle() {
			v.sounding = false
			vp.free = append(vp.free, i)
		}
	}
	return value
}

// applyParams pushes live parameter values into every sounding voice.
func (vp *voicePool) applyParams(p *params) {
	for _, v := range vp.slots {
		if v.sounding {
			v.applyParams(p)
		}
	}
}

func (vp *voicePool) soundingCount() int {
	return len(vp.slots) - len(vp.free)
}

func (vp *voicePool) holds(key string) bool {
	i, ok := vp.byKey[key]
	return ok && vp.slots[i].sounding
}
