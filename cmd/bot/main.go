package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"ravenhold.gg/internal/protocol"
)

// A minimal scripted dominion: joins a round, keeps the connection alive,
// and fires a self-buff, a daily land claim, and the odd bank exchange.
// Useful for soaking a dev server without real players.
func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "dominion name")
		race  = flag.String("race", "human", "race key")
		every = flag.Duration("every", 30*time.Second, "how often to act")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		DominionName:    *name,
		Race:            *race,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		logger.Fatalf("read WELCOME: %v", err)
	}
	logger.Printf("WELCOME dominion=%s round=%s tick=%d", welcome.DominionID, welcome.RoundParams.RoundID, welcome.RoundParams.Tick)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go readLoop(conn, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	seq := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			seq++
			act := nextAct(welcome.DominionID, seq, rng)
			if err := conn.WriteJSON(act); err != nil {
				logger.Printf("send ACT: %v", err)
				return
			}
		}
	}
}

func nextAct(dominionID string, seq int, rng *rand.Rand) protocol.ActMsg {
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              fmt.Sprintf("A%d", seq),
		DominionID:      dominionID,
	}
	switch rng.Intn(3) {
	case 0:
		act.Action = protocol.ActCastSpell
		act.Spell = "gaias_watch"
	case 1:
		act.Action = protocol.ActDailyLand
	default:
		act.Action = protocol.ActExchange
		act.From = "lumber"
		act.To = "food"
		act.Amount = 100 + rng.Intn(400)
	}
	return act
}

func readLoop(conn *websocket.Conn, logger *log.Logger) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			logger.Printf("ACK %s accepted=%v success=%v code=%s deltas=%v", ack.AckFor, ack.Accepted, ack.Success, ack.Code, ack.Deltas)
		case protocol.TypeNotice:
			var n protocol.NoticeMsg
			if err := json.Unmarshal(msg, &n); err != nil {
				continue
			}
			logger.Printf("NOTICE %s tick=%d source=%s spell=%s", n.Kind, n.Tick, n.Source, n.Spell)
		}
	}
}
