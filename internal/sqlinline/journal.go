package sqlinline

const QAppendJournal = `--sql b5294d58-84c6-4bb0-8e75-cfad0f4c88fb
insert into campaign_journal(entry_id, kind, campaign_id, caller, payload, recorded_at)
values ($1::uuid, $2::text, $3::numeric, $4::text, $5::jsonb, $6::timestamptz)
returning seq;
`

const QListJournal = `--sql 12b163cf-7533-4d00-a14f-5300ab4de5fe
select seq, entry_id::text, kind, campaign_id::text, caller, payload, recorded_at
from campaign_journal
where seq > $1::bigint
order by seq
limit $2::int;
`
