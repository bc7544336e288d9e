package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/stagehand-io/stagehand/actors"
	"github.com/stagehand-io/stagehand/config"
	"github.com/stagehand-io/stagehand/log"
)

var (
	runActors   int
	runSenders  int
	runDuration time.Duration
	runTimeout  time.Duration
)

func init() {
	runCMD.Flags().IntVar(&runActors, "actors", 10, "number of counter actors to spawn")
	runCMD.Flags().IntVar(&runSenders, "senders", 4, "number of concurrent senders per actor")
	runCMD.Flags().DurationVar(&runDuration, "duration", 10*time.Second, "how long to generate load")
	runCMD.Flags().DurationVar(&runTimeout, "stop-timeout", 5*time.Second, "graceful shutdown deadline")
	rootCmd.AddCommand(runCMD)
}

var runCMD = &cobra.Command{
	Use:   "run",
	Short: "run a load-generating demo against a local actor system",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runSample())
	},
}

// tick is the demo workload message.
type tick struct {
	Sender string
	Seq    int
}

// counterActor counts ticks and reports the total when it stops.
type counterActor struct {
	name  string
	total int
}

func (a *counterActor) Receive(ctx *actors.Context, msg actors.Message) error {
	switch msg.(type) {
	case tick:
		a.total++
		return nil
	default:
		return actors.ErrUnhandled
	}
}

func (a *counterActor) PostStop(ctx *actors.Context) {
	ctx.Logger().Infof("%s processed %d ticks", a.name, a.total)
}

func runSample() int {
	logger := log.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return 1
	}

	system, err := actors.NewActorSystem(cfg, actors.WithLogger(logger))
	if err != nil {
		logger.Errorf("failed to start actor system: %v", err)
		return 1
	}

	metrics := &counter{mtx: &sync.Mutex{}}
	go doReporting(logger, metrics)

	ctx := context.Background()
	handles := make([]*actors.ActorWrapper, 0, runActors)
	for i := 0; i < runActors; i++ {
		name := fmt.Sprintf("counter-%d", i)
		factory := actors.ActorFactoryFunc(func(*actors.Context) actors.Actor {
			return &counterActor{name: name}
		})
		handle, err := system.Spawn(ctx, factory, config.NewActorConfig(name))
		if err != nil {
			logger.Errorf("failed to spawn %s: %v", name, err)
			return 1
		}
		handles = append(handles, handle)
	}

	var wg sync.WaitGroup
	for _, handle := range handles {
		for i := 0; i < runSenders; i++ {
			wg.Add(1)
			go func(handle *actors.ActorWrapper, sender string) {
				defer wg.Done()
				sendMessages(ctx, handle, sender, metrics, runDuration)
			}(handle, fmt.Sprintf("sender-%d", i))
		}
	}
	wg.Wait()

	system.Stop(runTimeout)
	status := system.AwaitShutdown()
	logger.Infof("shutdown complete, status=%d", status)
	return status
}

func sendMessages(ctx context.Context, handle *actors.ActorWrapper, sender string, metrics *counter, lifespan time.Duration) {
	start := time.Now()
	for seq := 0; time.Since(start) < lifespan; seq++ {
		sendStart := time.Now()
		if err := handle.Send(ctx, tick{Sender: sender, Seq: seq}); err != nil {
			return
		}
		metrics.Add(time.Since(sendStart))
		time.Sleep(time.Millisecond)
	}
}

func doReporting(logger log.Logger, metrics *counter) {
	for {
		time.Sleep(500 * time.Millisecond)
		metrics.Report(logger)
	}
}

type counter struct {
	calls    int64
	duration time.Duration
	mtx      *sync.Mutex
}

func (c *counter) Add(t time.Duration) {
	c.mtx.Lock()
	c.calls += 1
	c.duration = c.duration + t
	c.mtx.Unlock()
}

func (c *counter) Report(logger log.Logger) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.calls == 0 {
		return
	}
	avg := c.duration.Microseconds() / c.calls
	logger.Infof("sends=%d avg=%dus", c.calls, avg)
}
