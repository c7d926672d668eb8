package service

import (
	"context"

	"github.com/iWorld-y/orda/app/orda/pkg/simulation"
)

type ScenariosReply struct {
	Success   bool                      `json:"success"`
	Scenarios []simulation.ScenarioView `json:"scenarios"`
}

type RecommendedReq struct {
	Id string `json:"id"`
}

type RecommendedReply struct {
	Success    bool                          `json:"success"`
	ScenarioId string                        `json:"scenario_id"`
	Stocks     map[string][]simulation.Stock `json:"recommended_stocks"`
}

type ValidateReply struct {
	Success bool `json:"success"`
	simulation.Validation
}

type RunSimulationReply struct {
	Success bool `json:"success"`
	*simulation.Result
}

type CompaniesReq struct {
	Sector string `json:"sector"`
	Query  string `json:"query"`
}

type CompaniesReply struct {
	Success   bool                 `json:"success"`
	Companies []simulation.Company `json:"companies"`
	Count     int                  `json:"count"`
}

func (s *OrdaService) Scenarios(ctx context.Context, _ *Empty) (*ScenariosReply, error) {
	return &ScenariosReply{Success: true, Scenarios: s.ucSimulation.Scenarios()}, nil
}

func (s *OrdaService) RecommendedStocks(ctx context.Context, req *RecommendedReq) (*RecommendedReply, error) {
	rec, err := s.ucSimulation.Recommended(req.Id)
	if err != nil {
		return nil, err
	}
	return &RecommendedReply{Success: true, ScenarioId: req.Id, Stocks: rec}, nil
}

func (s *OrdaService) ValidateSimulation(ctx context.Context, req *simulation.Request) (*ValidateReply, error) {
	return &ValidateReply{Success: true, Validation: s.ucSimulation.Validate(*req)}, nil
}

func (s *OrdaService) RunSimulation(ctx context.Context, req *simulation.Request) (*RunSimulationReply, error) {
	res, err := s.ucSimulation.Run(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &RunSimulationReply{Success: true, Result: res}, nil
}

func (s *OrdaService) Companies(ctx context.Context, req *CompaniesReq) (*CompaniesReply, error) {
	cs := nonNil(s.ucSimulation.Companies(req.Sector, req.Query))
	return &CompaniesReply{Success: true, Companies: cs, Count: len(cs)}, nil
}
