package main

import (
	"applybot/bot/commands"
	"applybot/bot/config"
	"applybot/bot/conversation"
	"applybot/bot/engine"
	"applybot/bot/events"
	"applybot/bot/flows"
	"applybot/bot/gateway"
	"applybot/bot/handlers"
	"applybot/bot/metrics"
	"applybot/bot/responses"
	"applybot/bot/store"
	"applybot/bot/tasks"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	REGISTER_COMMANDS = flag.Bool("register-commands", true, "True by default (useful in development)")
	TESTING           = flag.Bool("testing", false, "Load a .env file from the working directory")
	SETTINGS          = flag.String("settings", "", "Path to a YAML settings file")
)

var (
	cfg      config.Config
	settings config.Settings
	s        *discordgo.Session
	db       *gorm.DB
	log      = logrus.New()
)

func init() { flag.Parse() }

func init() {
	var err error

	cfg, err = config.Load(*TESTING)
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	log.SetLevel(cfg.Level())

	settings, err = config.LoadSettings(*SETTINGS)
	if err != nil {
		log.Fatalf("Could not load settings: %v", err)
	}
	if color, err := responses.ParseColor(settings.EmbedColor); err == nil {
		responses.Color = color
	} else {
		log.WithError(err).Warnf("Ignoring embed color %q", settings.EmbedColor)
	}

	s, err = discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatalf("Invalid bot parameters: %v", err)
	}
	s.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentGuildMembers
}

func init() {
	dialector := sqlite.Open("file::memory:?cache=shared")
	if cfg.PostgresDSN != "" {
		dialector = postgres.Open(cfg.PostgresDSN)
	} else {
		log.Warnln("POSTGRES_DSN is not set, guild configuration will not survive a restart")
	}

	var err error
	db, err = gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
}

func main() {
	configs, err := store.NewGormConfigStore(db)
	if err != nil {
		log.Fatalf("Could not prepare database: %v", err)
	}

	mem := store.NewMemory()
	e := engine.New(engine.Deps{
		Configs:     configs,
		Apps:        mem,
		Submissions: mem,
		Votes:       mem,
		Log:         log,
	})

	gw := gateway.NewDiscord(s)
	manager := conversation.NewManager(gw, conversation.RealTimers, log)
	f := flows.New(e, gw, manager, settings.DefaultQuestions, log)
	h := handlers.New(e, f, gw, log)
	e.SetNotifier(handlers.NewNotifier(gw, log))
	router := events.NewRouter(h, manager, gw, settings, log)

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
		s.UpdateWatchStatus(0, "applications")
	})
	s.AddHandler(handlers.InteractionCreateHandler(h))
	s.AddHandler(events.MessageCreateHandler(router))

	err = s.Open()
	if err != nil {
		log.Fatalf("Cannot open the session: %v", err)
	}
	defer s.Close()

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.SweepInterval).Do(tasks.DeadlineSweep(e, log)); err != nil {
		log.Fatalf("Cannot schedule deadline sweep: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Router()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Errorln("Metrics listener stopped")
			}
		}()
		defer srv.Close()
		log.Printf("Serving metrics on %v", cfg.MetricsAddr)
	}

	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commands.Commands))
	if *REGISTER_COMMANDS {
		log.Println("Adding commands...")

		for _, command := range commands.Commands {
			cmd, err := s.ApplicationCommandCreate(s.State.User.ID, cfg.GuildId, command)
			if err != nil {
				log.Panicf("Cannot create '%v' command: %v", command.Name, err)
			}

			registeredCommands = append(registeredCommands, cmd)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	log.Println("Press Ctrl+C to exit")
	<-stop

	if cfg.CleanCommandsAfterShutdown {
		log.Println("Removing commands...")

		for _, command := range registeredCommands {
			err := s.ApplicationCommandDelete(s.State.User.ID, cfg.GuildId, command.ID)
			if err != nil {
				log.Panicf("Cannot delete '%v' command: %v", command.Name, err)
			}
		}
	}

	log.Println("Gracefully shutting down.")
}
