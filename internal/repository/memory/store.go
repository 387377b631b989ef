// Package memory implements the repositories on in-process maps. It backs
// the API when started without a database and serves as the fake store in
// service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*model.User
	clinicians    map[uuid.UUID]*model.Clinician
	patients      map[uuid.UUID]*model.Patient
	appointments  map[uuid.UUID]*model.Appointment
	consultations map[uuid.UUID]*model.Consultation
	pediatric     map[uuid.UUID]*model.PediatricDetail
	adult         map[uuid.UUID]*model.AdultDetail
	orders        []*model.ExamOrder
	prescriptions []*model.Prescription
	audit         []*model.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*model.User),
		clinicians:    make(map[uuid.UUID]*model.Clinician),
		patients:      make(map[uuid.UUID]*model.Patient),
		appointments:  make(map[uuid.UUID]*model.Appointment),
		consultations: make(map[uuid.UUID]*model.Consultation),
		pediatric:     make(map[uuid.UUID]*model.PediatricDetail),
		adult:         make(map[uuid.UUID]*model.AdultDetail),
	}
}

func (s *Store) Users() repository.UserRepository                 { return userRepo{s} }
func (s *Store) Clinicians() repository.ClinicianRepository       { return clinicianRepo{s} }
func (s *Store) Patients() repository.PatientRepository           { return patientRepo{s} }
func (s *Store) Appointments() repository.AppointmentRepository   { return appointmentRepo{s} }
func (s *Store) Consultations() repository.ConsultationRepository { return consultationRepo{s} }
func (s *Store) Audit() repository.AuditRepository                { return auditRepo{s} }

// PingContext always succeeds; it lets the store stand in for a database in
// readiness checks.
func (s *Store) PingContext(ctx context.Context) error { return ctx.Err() }

func stamp(b *model.Base) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	stamp(&user.Base)
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type clinicianRepo struct{ s *Store }

func (r clinicianRepo) CreateWithUser(ctx context.Context, clinician *model.Clinician, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	for _, c := range r.s.clinicians {
		if strings.EqualFold(c.Email, clinician.Email) {
			return repository.ErrDuplicate
		}
	}

	stamp(&user.Base)
	clinician.ID = uuid.Nil
	stamp(&clinician.Base)
	clinician.UserID = user.ID
	user.ClinicianID = &clinician.ID

	u, c := *user, *clinician
	r.s.users[user.ID] = &u
	r.s.clinicians[clinician.ID] = &c
	return nil
}

func (r clinicianRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clinicians[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r clinicianRepo) List(ctx context.Context) ([]*model.Clinician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Clinician, 0, len(r.s.clinicians))
	for _, c := range r.s.clinicians {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) Create(ctx context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&patient.Base)
	copied := *patient
	r.s.patients[patient.ID] = &copied
	return nil
}

func (r patientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r patientRepo) Update(ctx context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	patient.UpdatedAt = time.Now()
	copied := *patient
	r.s.patients[patient.ID] = &copied
	return nil
}

func (r patientRepo) SetSex(ctx context.Context, id uuid.UUID, sex string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return repository.ErrNotFound
	}
	copied := *p
	v := clinical.Sex(sex)
	copied.Sex = &v
	r.s.patients[id] = &copied
	return nil
}

func (r patientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := ""
	if filters != nil {
		q = strings.ToLower(strings.TrimSpace(filters.Query))
	}
	out := make([]*model.Patient, 0)
	for _, p := range r.s.patients {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.HasPrefix(p.ID.String(), q) {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type appointmentRepo struct{ s *Store }

func (r appointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.appointments {
		if a.ClinicianID == appointment.ClinicianID && a.ScheduledAt.Equal(appointment.ScheduledAt) {
			return repository.ErrDuplicate
		}
	}
	stamp(&appointment.Base)
	copied := *appointment
	r.s.appointments[appointment.ID] = &copied
	return nil
}

func (r appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withPatientName(a), nil
}

func (r appointmentRepo) withPatientName(a *model.Appointment) *model.Appointment {
	copied := *a
	if p, ok := r.s.patients[a.PatientID]; ok {
		copied.PatientName = p.Name
	}
	return &copied
}

func (r appointmentRepo) ExistsAt(ctx context.Context, clinicianID uuid.UUID, at time.Time) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.appointments {
		if a.ClinicianID == clinicianID && a.ScheduledAt.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r appointmentRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != from {
		return repository.ErrStaleStatus
	}
	copied := *a
	copied.Status = to
	copied.UpdatedAt = time.Now()
	r.s.appointments[id] = &copied
	return nil
}

func (r appointmentRepo) match(a *model.Appointment, filters *model.AppointmentFilters) bool {
	if filters == nil {
		return true
	}
	if !filters.Range.Start.IsZero() && !filters.Range.End.IsZero() && !filters.Range.Contains(a.ScheduledAt) {
		return false
	}
	if filters.ClinicianID != nil && a.ClinicianID != *filters.ClinicianID {
		return false
	}
	if filters.Status != "" && a.Status != filters.Status {
		return false
	}
	return true
}

func (r appointmentRepo) Find(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Appointment, 0)
	for _, a := range r.s.appointments {
		if r.match(a, filters) {
			out = append(out, r.withPatientName(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r appointmentRepo) CountByStatus(ctx context.Context, filters *model.AppointmentFilters) ([]model.StatusCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	type key struct {
		clinician uuid.UUID
		status    model.AppointmentStatus
	}
	counts := make(map[key]int)
	for _, a := range r.s.appointments {
		if r.match(a, filters) {
			counts[key{a.ClinicianID, a.Status}]++
		}
	}
	out := make([]model.StatusCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.StatusCount{ClinicianID: k.clinician, Status: k.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClinicianID != out[j].ClinicianID {
			return out[i].ClinicianID.String() < out[j].ClinicianID.String()
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

type consultationRepo struct{ s *Store }

func (r consultationRepo) Create(ctx context.Context, c *model.Consultation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	copied := *c
	r.s.consultations[c.ID] = &copied
	return nil
}

func (r consultationRepo) withClinicianName(c *model.Consultation) *model.Consultation {
	copied := *c
	if cl, ok := r.s.clinicians[c.ClinicianID]; ok {
		copied.ClinicianName = cl.Name
	}
	return &copied
}

func (r consultationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.consultations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withClinicianName(c), nil
}

func (r consultationRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Consultation, 0)
	for _, c := range r.s.consultations {
		if c.PatientID == patientID {
			out = append(out, r.withClinicianName(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsultedAt.After(out[j].ConsultedAt) })
	return out, nil
}

func (r consultationRepo) CreatePediatricDetail(ctx context.Context, d *model.PediatricDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.pediatric[d.ConsultationID]; ok {
		return repository.ErrDuplicate
	}
	d.ID, d.CreatedAt = uuid.New(), time.Now()
	copied := *d
	r.s.pediatric[d.ConsultationID] = &copied
	return nil
}

func (r consultationRepo) CreateAdultDetail(ctx context.Context, d *model.AdultDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.adult[d.ConsultationID]; ok {
		return repository.ErrDuplicate
	}
	d.ID, d.CreatedAt = uuid.New(), time.Now()
	copied := *d
	r.s.adult[d.ConsultationID] = &copied
	return nil
}

func (r consultationRepo) GetPediatricDetail(ctx context.Context, consultationID uuid.UUID) (*model.PediatricDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.pediatric[consultationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r consultationRepo) GetAdultDetail(ctx context.Context, consultationID uuid.UUID) (*model.AdultDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.adult[consultationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r consultationRepo) CreateExamOrder(ctx context.Context, o *model.ExamOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID, o.CreatedAt = uuid.New(), time.Now()
	copied := *o
	r.s.orders = append(r.s.orders, &copied)
	return nil
}

func (r consultationRepo) ListExamOrders(ctx context.Context, consultationID uuid.UUID) ([]*model.ExamOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.ExamOrder, 0)
	for _, o := range r.s.orders {
		if o.ConsultationID == consultationID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r consultationRepo) CreatePrescription(ctx context.Context, rx *model.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rx.ID, rx.CreatedAt = uuid.New(), time.Now()
	copied := *rx
	r.s.prescriptions = append(r.s.prescriptions, &copied)
	return nil
}

func (r consultationRepo) ListPrescriptions(ctx context.Context, consultationID uuid.UUID) ([]*model.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Prescription, 0)
	for _, rx := range r.s.prescriptions {
		if rx.ConsultationID == consultationID {
			copied := *rx
			out = append(out, &copied)
		}
	}
	return out, nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *log
	r.s.audit = append(r.s.audit, &copied)
	return nil
}

func (r auditRepo) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.AuditLog, 0)
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		if filters != nil {
			if filters.EntityType != "" && l.EntityType != filters.EntityType {
				continue
			}
			if filters.EntityID != nil && l.EntityID != *filters.EntityID {
				continue
			}
			if filters.Limit > 0 && len(out) >= filters.Limit {
				break
			}
		}
		copied := *l
		out = append(out, &copied)
	}
	return out, nil
}

func (r auditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.audit[:0]
	for _, l := range r.s.audit {
		if !l.CreatedAt.Before(cutoff) {
			kept = append(kept, l)
		}
	}
	removed := int64(len(r.s.audit) - len(kept))
	r.s.audit = kept
	return removed, nil
}
