package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/openbeats/daw-engine/src/audio"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	config, err := audio.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := audio.NewAudio(config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer a.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, os.Kill, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, config.SocketPath, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return a.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, a.CommandCh)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, a)
		})
		g.Go(func() error {
			return forwardNotifications(ctx, conn, a.Notifications)
		})
		if config.MidiIn {
			g.Go(func() error {
				for data := range audio.ListenToMidiIn(ctx) {
					a.AddMidiEvent(data)
				}
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, a *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	waveform := make([]float64, 256)
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			lines := make([]string, 0, 4)

			status := a.GetStatus()
			statusBytes, err := json.Marshal(status)
			if err != nil {
				return err
			}
			lines = append(lines, "status "+string(statusBytes))

			rms, peak := a.GetMeter()
			lines = append(lines, "meter "+
				strconv.FormatFloat(rms, 'f', 6, 64)+" "+
				strconv.FormatFloat(peak, 'f', 6, 64))

			a.GetWaveform(waveform)
			w := "waveform"
			for _, value := range waveform {
				w += " " + strconv.FormatFloat(value, 'f', 6, 64)
			}
			lines = append(lines, w)

			if result := a.GetFFT(ctx); result != nil {
				s := "fft"
				for _, value := range result {
					s += " " + strconv.FormatFloat(value, 'f', 6, 64)
				}
				lines = append(lines, s)
			}

			if a.Changes.Has("presets") {
				a.Changes.Delete("presets")
				if list, err := a.GetPresetList(); err == nil {
					presetBytes, err := json.Marshal(list)
					if err != nil {
						return err
					}
					lines = append(lines, "presets "+url.QueryEscape(string(presetBytes)))
				}
			}

			if a.Changes.Has("data") {
				a.Changes.Delete("data")
				lines = append(lines, "data "+url.QueryEscape(string(a.ToJSON())))
			}

			select {
			case <-ctx.Done():
				log.Println("sendReports() interrupted")
				break loop
			default:
				if _, err := conn.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
					return err
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}

func forwardNotifications(ctx context.Context, conn net.Conn, ch <-chan audio.Notification) error {
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("forwardNotifications() interrupted")
			break loop
		case n := <-ch:
			line := "notify " + n.Kind + " " + strconv.FormatFloat(n.Beat, 'f', 6, 64)
			if n.Clip != nil {
				clipBytes, err := json.Marshal(n.Clip)
				if err != nil {
					return err
				}
				line += " " + url.QueryEscape(string(clipBytes))
			}
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return err
			}
		}
	}
	log.Println("forwardNotifications() ended.")
	return nil
}
