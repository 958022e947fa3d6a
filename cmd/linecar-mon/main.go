package main

import (
	"context"
	"flag"
	"log"
	"reflect"

	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/telemetry"
	"github.com/robotalks/linecar/pkg/telemetry/mqtt"
	"github.com/robotalks/linecar/pkg/telemetry/websocket"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	wsURL   string
	carID   = "+"
)

func init() {
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&wsURL, "ws", wsURL, "Websocket URL of a car, e.g. ws://car:8080/telemetry, instead of MQTT.")
	flag.StringVar(&carID, "car-id", carID, "Car ID to monitor, + for all.")
}

func printMsg(_ context.Context, msg telemetry.SerializableMessage, typed *telemetry.Typed) error {
	log.Printf("%s#%d: [%s] %s", typed.Source, typed.Sequence,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	var rw telemetry.PacketReadWriter
	if wsURL != "" {
		conn, err := websocket.Dial(wsURL)
		if err != nil {
			log.Fatalln(err)
		}
		rw = conn
	} else {
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			log.Fatalln(err)
		}
		rw = mqtt.NewPacketReadWriter(q).ForMonitor(carID)
	}

	pipe := telemetry.NewPipe(rw)
	pipe.Handler = telemetry.HandleTypedMsgFunc(printMsg)
	if err := framework.NewRunner().HandleSignals().Go(framework.NewLoop().Add(pipe)).Wait(); err != nil {
		log.Fatalln(err)
	}
}
