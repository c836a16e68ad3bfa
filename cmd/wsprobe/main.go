// Command main is a manual probe for the sync websocket. It logs in, opens
// /api/ws/sync and prints every frame the server pushes, optionally toggling
// visibility and forcing refreshes so the adaptive cadence can be observed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8440", "API server host")
	email := flag.String("email", "kapitan@barangay.local", "Account email")
	password := flag.String("password", "kapitan-dev-password", "Account password")
	hideAfter := flag.Duration("hide-after", 0, "Send visible=false after this delay (0 disables)")
	refreshEvery := flag.Duration("refresh-every", 0, "Force a refresh at this interval (0 disables)")
	flag.Parse()

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s", *email)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws/sync", RawQuery: "token=" + token}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Websocket dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s", u.String())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	go func() {
		if *hideAfter > 0 {
			time.Sleep(*hideAfter)
			send(conn, map[string]any{"type": "visibility", "visible": false})
			log.Println("-> visibility: hidden")
		}
	}()

	go func() {
		if *refreshEvery <= 0 {
			return
		}
		ticker := time.NewTicker(*refreshEvery)
		defer ticker.Stop()
		for range ticker.C {
			send(conn, map[string]any{"type": "refresh"})
			log.Println("-> refresh")
		}
	}()

	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Read failed: %v", err)
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			log.Printf("<- %s", raw)
			continue
		}
		log.Printf("<- %s", pretty.String())
	}
}

func send(conn *websocket.Conn, payload map[string]any) {
	raw, _ := json.Marshal(payload)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		log.Printf("Write failed: %v", err)
	}
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}
