// Package influxdb records health telemetry in InfluxDB using the official
// influxdb-client-go v2 library.
//
// Sensor readings become points in the "vitals" measurement, one field per
// sensor. Status changes and alerts are written to "status" and "alerts",
// tagged by priority and level. Point times come from the publisher's
// timestamp when it parses as RFC 3339.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSensorReading(reading)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Write errors are delivered to the SetOnError callback.
package influxdb
