// Package notify presents alerts and recommendations to the user.
//
// Console writes colour-coded lines to a terminal. PreferenceFilter drops
// recommendation notifications when the user has turned notifications off;
// alerts always pass. Async moves presentation onto an ants worker pool so
// the MQTT receive path never waits on a slow sink.
//
// Each type implements session.Notifier and they compose:
//
//	n := notify.NewAsync(notify.NewPreferenceFilter(notify.NewConsole(os.Stdout, notify.ConsoleOptions{}), svc, logger), 4, logger)
//	defer n.Release()
package notify
