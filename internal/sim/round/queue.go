package round

import "fmt"

// QueueUp registers a deferred delivery. Entries with the same source, key
// and remaining ticks merge.
func (d *Dominion) QueueUp(source, key string, amount, ticks int) error {
	if amount <= 0 {
		return ErrBadAmount
	}
	if ticks < 1 {
		return fmt.Errorf("queue %s/%s: ticks must be >= 1", source, key)
	}
	for i := range d.Queue {
		e := &d.Queue[i]
		if e.Source == source && e.Key == key && e.TicksRemaining == ticks {
			e.Amount += amount
			return nil
		}
	}
	d.Queue = append(d.Queue, QueueEntry{
		Source:         source,
		Key:            key,
		Amount:         amount,
		TicksRemaining: ticks,
	})
	return nil
}

// QueueTotal sums pending amounts for one source and key.
func (d *Dominion) QueueTotal(source, key string) int {
	total := 0
	for _, e := range d.Queue {
		if e.Source == source && e.Key == key {
			total += e.Amount
		}
	}
	return total
}

// QueueTotalKey sums pending amounts for a key across all sources.
func (d *Dominion) QueueTotalKey(key string) int {
	total := 0
	for _, e := range d.Queue {
		if e.Key == key {
			total += e.Amount
		}
	}
	return total
}

// advanceQueue decrements every entry and removes the ones that reached
// zero, returning them for delivery. Relative order is preserved so
// deliveries stay deterministic.
func (d *Dominion) advanceQueue() []QueueEntry {
	var due []QueueEntry
	kept := d.Queue[:0]
	for _, e := range d.Queue {
		e.TicksRemaining--
		if e.TicksRemaining <= 0 {
			due = append(due, e)
			continue
		}
		kept = append(kept, e)
	}
	d.Queue = kept
	return due
}

// deliver credits one matured queue entry to the dominion's containers.
func (d *Dominion) deliver(e QueueEntry) {
	if e.Amount <= 0 {
		return
	}
	if land, ok := landQueueKey(e.Key); ok {
		d.Land[land] += e.Amount
		return
	}
	if knownResource(e.Key) {
		d.Resources[e.Key] += e.Amount
		return
	}
	// Everything else in the queue is a unit key.
	d.Units[e.Key] += e.Amount
}

func landQueueKey(key string) (string, bool) {
	if len(key) <= len(landQueuePrefix) || key[:len(landQueuePrefix)] != landQueuePrefix {
		return "", false
	}
	land := key[len(landQueuePrefix):]
	if !knownLand(land) {
		return "", false
	}
	return land, true
}
