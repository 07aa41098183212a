package main

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
	"github.com/rmoh-git/kwik-med-emr-backend/internal/infrastructure/database"
	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

func main() {
	log.Println("🚀 Starting test sessions creation...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Define test sessions
	testSessions := []struct {
		PractitionerName string
		VisitType        string
		Status           entities.SessionStatus
	}{
		{PractitionerName: "Dr. Uwimana", VisitType: "consultation", Status: entities.SessionStatusActive},
		{PractitionerName: "Dr. Mugisha", VisitType: "follow-up", Status: entities.SessionStatusActive},
		{PractitionerName: "Dr. Keza", VisitType: "consultation", Status: entities.SessionStatusCompleted},
	}

	for _, ts := range testSessions {
		patientID := uuid.New()
		name := ts.PractitionerName
		visitType := ts.VisitType

		session := &entities.Session{
			ID:               uuid.New(),
			PatientID:        &patientID,
			PractitionerName: &name,
			VisitType:        &visitType,
			Status:           ts.Status,
			StartedAt:        time.Now(),
		}
		if ts.Status != entities.SessionStatusActive {
			endedAt := time.Now()
			session.EndedAt = &endedAt
		}

		if err := db.Create(session).Error; err != nil {
			log.Fatalf("❌ Failed to create session for %s: %v", ts.PractitionerName, err)
		}
		log.Printf("✅ Created %s session %s (%s)", ts.Status, session.ID, ts.PractitionerName)
	}

	log.Println("✅ Test sessions created")
}
